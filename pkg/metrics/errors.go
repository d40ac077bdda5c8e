package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors. These allow errors.Is from callers
// that treat observation failures as non-fatal.
var (
	ErrObserveFailed = errors.New("metrics observe failed")
)
