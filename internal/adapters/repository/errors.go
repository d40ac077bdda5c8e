package repository

import "errors"

// Sentinel kinds for recommendation store errors.
var (
	ErrNotFound = errors.New("employee has no stored recommendations")
)
