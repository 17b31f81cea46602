package whatsapp

import "errors"

var (
	ErrFailedToParse = errors.New("failed to parse response")
	ErrEmptyMedia    = errors.New("media is empty")
	ErrMediaTooLarge = errors.New("media too large")
	ErrNotConfigured = errors.New("whatsapp client not configured")
)
