package structuring

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/bulletin/internal/fingerprint"
)

// ErrStructuring is matched by every *Error.
var ErrStructuring = errors.New("structuring failed")

// Failure stages reported in Error.Stage.
const (
	StageCall      = "call"
	StageTruncated = "truncated"
	StageParse     = "parse"
	StageSchema    = "schema"
)

// Error reports a structuring request that produced no usable reply. Nothing
// is cached for it.
type Error struct {
	Fingerprint fingerprint.Fingerprint
	Stage       string
	Attempts    int
	Retryable   bool
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("structuring %s (%s, %d attempts): %v", e.Fingerprint.Short(), e.Stage, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrStructuring.
func (e *Error) Is(target error) bool {
	return target == ErrStructuring
}

// IsRetryable reports whether err is a structuring failure worth another try.
func IsRetryable(err error) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Retryable
}
