package trigger

import (
	"errors"
	"fmt"
)

var ErrFailedToParse = errors.New("failed to parse sweep response")

type StatusError struct {
	StatusCode int
}

func (self *StatusError) Error() string {
	return fmt.Sprintf("sweep endpoint returned status %d", self.StatusCode)
}
