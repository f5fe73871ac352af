// Package fault classifies errors into the kinds the client reacts to and
// renders them as banner text.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind is a machine-readable error class.
type Kind string

const (
	KindNone              Kind = ""
	KindValidation        Kind = "VALIDATION"         // caught before any call
	KindRemoteRejection   Kind = "REMOTE_REJECTION"   // non-2xx from the service
	KindDeviceUnavailable Kind = "DEVICE_UNAVAILABLE" // no microphone or permission
	KindDecodeFailure     Kind = "DECODE_FAILURE"     // raw capture forwarded instead
	KindTransientPoll     Kind = "TRANSIENT_POLL"     // logged only
	KindCanceled          Kind = "CANCELED"
	KindInternal          Kind = "INTERNAL"
)

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func Validation(err error) error        { return Wrap(KindValidation, err) }
func DeviceUnavailable(err error) error { return Wrap(KindDeviceUnavailable, err) }
func DecodeFailure(err error) error     { return Wrap(KindDecodeFailure, err) }
func TransientPoll(err error) error     { return Wrap(KindTransientPoll, err) }

// Rejection is implemented by transport errors that carry a service status
// and message.
type Rejection interface {
	error
	Rejected() (status int, message string)
}

// KindOf reports the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var rj Rejection
	if errors.As(err, &rj) {
		return KindRemoteRejection
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindInternal
}

// Surfaced reports whether err belongs in front of the user.
func Surfaced(err error) bool {
	switch KindOf(err) {
	case KindNone, KindTransientPoll, KindCanceled:
		return false
	}
	return true
}

// Message renders err as one line of banner text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rj Rejection
	if errors.As(err, &rj) {
		_, msg := rj.Rejected()
		return msg
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Err != nil {
		switch fe.Kind {
		case KindDeviceUnavailable:
			return fmt.Sprintf("Microphone unavailable: %v", fe.Err)
		case KindDecodeFailure:
			return "Could not convert the recording; uploading the original."
		}
		return capitalize(fe.Err.Error())
	}
	return capitalize(err.Error())
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
