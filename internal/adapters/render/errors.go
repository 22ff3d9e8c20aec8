package render

import "errors"

// ErrUnknownFormat is returned for output formats other than png and svg.
var ErrUnknownFormat = errors.New("unknown image format")
