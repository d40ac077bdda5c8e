package config

import (
	"errors"
)

// Sentinel error kinds for this package. Load wraps every failure in one of
// these so callers can errors.Is without caring about the source layer.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
