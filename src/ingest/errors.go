package ingest

import "errors"

var (
	ErrConflict          = errors.New("pending submission changed concurrently")
	ErrAlreadyProcessing = errors.New("pending submission is already processing")
	ErrChanged           = errors.New("pending submission changed after it was read")
	ErrUnknownSender     = errors.New("sender isn't registered for any market")
	ErrTooManyConflicts  = errors.New("too many concurrent updates of pending submission")
	ErrEmptyResponse     = errors.New("structuring model returned empty response")
	ErrFailedToParse     = errors.New("failed to parse structuring model response")
)
