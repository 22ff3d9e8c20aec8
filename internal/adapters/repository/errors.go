package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrEmptyPath = errors.New("empty dataset path")
)
