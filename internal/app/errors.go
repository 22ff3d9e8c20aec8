package service

import (
	"errors"

	"github.com/okian/campaignboard/internal/domain/chart"
)

var (
	// ErrPageNotFound reports a page id that is not configured.
	ErrPageNotFound = errors.New("page not found")
	// ErrUnknownMetric reports a metric the page does not offer. It is the
	// chart builder's error so callers can match either with errors.Is.
	ErrUnknownMetric = chart.ErrUnknownMetric
	// ErrNotStarted reports a call made before Start.
	ErrNotStarted = errors.New("service not started")
)
