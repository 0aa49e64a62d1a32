// Package uart defines the asynchronous serial driver contract used by the
// bridge and provides a go.bug.st/serial backed implementation.
//
// The contract mirrors an interrupt driven UART peripheral: receive is armed
// with a destination slice and completes by callback once the slice is full,
// send starts with a source slice and raises a "transmit in progress" flag
// until the bytes are on the wire.
package uart
