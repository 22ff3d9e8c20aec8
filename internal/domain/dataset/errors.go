package dataset

import "errors"

// Sentinel errors for loading. Cell-level problems are never reported here.
var (
	ErrSourceUnavailable = errors.New("dataset source unavailable")
	ErrEmptySource       = errors.New("dataset source has no header row")
	ErrMissingDateColumn = errors.New("dataset source has no date column")
	ErrMalformedSource   = errors.New("dataset source is not valid CSV")
)
