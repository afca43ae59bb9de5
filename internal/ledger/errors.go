package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout marks a call whose deadline elapsed before the ledger answered.
	ErrTimeout = errors.New("ledger: timeout")
	// ErrTransport marks connection-level failures.
	ErrTransport = errors.New("ledger: transport failure")
	// ErrInvalidResponse marks a body that is not a ledger JSON envelope.
	ErrInvalidResponse = errors.New("ledger: invalid response")
)

// alreadyEnrolledMarker is the text the ledger uses when the student already has a row for the sport.
const alreadyEnrolledMarker = "Ya estás inscrito"

// RemoteError is an explicit success:false answer from the ledger.
type RemoteError struct {
	Action     string
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("ledger %s failed: %s", e.Action, msg)
}

// AlreadyEnrolled reports whether the ledger rejected the call as a duplicate enrollment.
func (e *RemoteError) AlreadyEnrolled() bool {
	return e != nil && strings.Contains(e.Message, alreadyEnrolledMarker)
}

// IsTimeout reports whether err was caused by the call deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// AsRemoteError extracts a *RemoteError from err.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}
