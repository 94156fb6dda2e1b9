package publisher

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPlatform = errors.New("platform has no publisher")
	ErrCombinedShape       = errors.New("combined feed and story shape must be split before publishing")
	ErrUnknownShape        = errors.New("unknown content shape")
	ErrNoMedia             = errors.New("content shape requires media")
)

// PartialError is returned when a multi-item publish stopped part way. Completed holds
// the external ids of items that did go out, in order.
type PartialError struct {
	Completed []string
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("published %d item(s) before failing: %v", len(e.Completed), e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether retrying the same unit can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnsupportedPlatform) ||
		errors.Is(err, ErrCombinedShape) ||
		errors.Is(err, ErrUnknownShape) ||
		errors.Is(err, ErrNoMedia)
}
