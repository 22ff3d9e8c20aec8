package model

import "errors"

// ErrInvalidMonthDay reports a month-day that does not exist.
var ErrInvalidMonthDay = errors.New("invalid month-day")
