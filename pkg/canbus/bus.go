// Package canbus provides CAN frame transport.
package canbus

import (
	"errors"
	"fmt"
)

// MaxDataLen is the payload limit of a classic CAN frame.
const MaxDataLen = 8

// Identifier limits.
const (
	MaxStandardID uint32 = 0x7ff
	MaxExtendedID uint32 = 0x1fffffff
)

// ErrClosed indicates the bus has been closed.
var ErrClosed = errors.New("canbus: closed")

// Frame is a classic CAN data frame.
type Frame struct {
	ID       uint32
	Extended bool
	Data     []byte
}

// Validate checks the identifier range and payload length.
func (f Frame) Validate() error {
	if len(f.Data) > MaxDataLen {
		return fmt.Errorf("canbus: data too long: %d", len(f.Data))
	}
	max := MaxStandardID
	if f.Extended {
		max = MaxExtendedID
	}
	if f.ID > max {
		return fmt.Errorf("canbus: id %#x out of range", f.ID)
	}
	return nil
}

// String implements fmt.Stringer in candump style.
func (f Frame) String() string {
	if f.Extended {
		return fmt.Sprintf("%08X#%X", f.ID, f.Data)
	}
	return fmt.Sprintf("%03X#%X", f.ID, f.Data)
}

// Bus sends and receives frames. Implementations are safe for concurrent
// use.
type Bus interface {
	// Send transmits a frame.
	Send(Frame) error
	// Receive blocks until a frame arrives or the bus is closed.
	Receive() (Frame, error)
	// Close releases the bus and unblocks Receive.
	Close() error
}
