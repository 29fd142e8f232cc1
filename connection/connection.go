// Package connection defines how the charger facade reaches a device and
// provides the HTTP and MQTT transports for the go-eCharger v1 API.
package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/jkaberg/go-echarger/status"
)

// Connection is the capability set the charger facade needs from a
// transport. Implementations own all network I/O, timeouts and retries.
type Connection interface {
	// FetchStatus returns the current raw status document.
	FetchStatus(ctx context.Context) (*status.Payload, error)
	// WriteKey sets one key on the device. Whatever the device sends back
	// as acknowledgement is discarded.
	WriteKey(ctx context.Context, key, value string) error
}

// ErrTransport matches every *TransportError.
var ErrTransport = errors.New("transport error")

// TransportError reports a network or protocol failure.
type TransportError struct {
	Op         string // "fetch" or "write"
	Endpoint   string // URL or topic
	StatusCode int    // HTTP status, 0 when not applicable
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

const (
	opFetch = "fetch"
	opWrite = "write"
)
