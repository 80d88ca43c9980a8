package token

import "errors"

// ErrRejected matches every validation failure regardless of its Reason.
var ErrRejected = errors.New("token rejected")

// Reason tells why a token was rejected. Callers outside this package should
// only log it; clients must see a single "unauthenticated" signal.
type Reason int

const (
	ReasonMalformed Reason = iota + 1
	ReasonInvalidSignature
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed"
	case ReasonInvalidSignature:
		return "invalid signature"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// RejectedError is returned by Codec.Validate.
type RejectedError struct {
	Reason Reason
	Err    error
}

func (e *RejectedError) Error() string {
	if e.Err != nil {
		return "token rejected: " + e.Reason.String() + ": " + e.Err.Error()
	}
	return "token rejected: " + e.Reason.String()
}

func (e *RejectedError) Unwrap() error { return e.Err }

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

func rejected(reason Reason, err error) error {
	return &RejectedError{Reason: reason, Err: err}
}

// ReasonOf extracts the rejection reason from err, or 0 when err is not a rejection.
func ReasonOf(err error) Reason {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return 0
}
