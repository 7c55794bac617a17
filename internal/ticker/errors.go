package ticker

import (
	"errors"
	"fmt"
)

// ErrForbidden marks an explicit authorization rejection: the server no
// longer recognizes this client identity for the targeted device.
var ErrForbidden = errors.New("device no longer paired")

// StatusError is any non-success HTTP status other than a forbidden
// rejection. The caller treats it as a validation rejection and relies
// on the next reconciliation fetch for true server state.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Endpoint, e.Code)
}

// DecodeError means the server was reached but its payload was not a
// valid envelope. Distinct from a transport failure: connectivity is
// fine, the data is not, and previously held state must be preserved.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecode reports whether err is a payload decode failure.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
