package charger

import (
	"errors"
	"fmt"
)

// Kind tells callers whether the device could not be reached or returned
// data that could not be understood.
type Kind int

const (
	// KindConnection wraps a transport failure. Retrying may help.
	KindConnection Kind = iota + 1
	// KindStatus wraps a decode or encode failure. Retrying will not help;
	// the firmware most likely speaks a dialect this package does not know.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindStatus:
		return "status"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Charger operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("goe %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsConnection reports whether err is a charger error of KindConnection.
func IsConnection(err error) bool { return isKind(err, KindConnection) }

// IsStatus reports whether err is a charger error of KindStatus.
func IsStatus(err error) bool { return isKind(err, KindStatus) }

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
