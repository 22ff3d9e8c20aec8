package chart

import "errors"

// Sentinel errors for chart building. Both mean the page configuration does
// not match the columns of its source file.
var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownFacet  = errors.New("unknown facet column")
)
