package esc

import (
	"encoding/binary"

	"github.com/robotalks/uartcomm/pkg/canbus"
)

// Command is a VESC CAN packet id, carried in bits 8..15 of the
// extended frame identifier.
type Command uint8

// Commands in use.
const (
	CmdSetDuty    Command = 0
	CmdSetCurrent Command = 1
	CmdSetRPM     Command = 3
	CmdStatus     Command = 9
)

// FrameID builds the extended identifier addressing a controller.
func FrameID(id uint8, cmd Command) uint32 {
	return uint32(id) | uint32(cmd)<<8
}

// SplitFrameID is the inverse of FrameID.
func SplitFrameID(frameID uint32) (id uint8, cmd Command) {
	return uint8(frameID), Command(frameID >> 8)
}

// Client sends commands to controllers on a bus.
type Client struct {
	Bus canbus.Bus
}

// NewClient creates a Client.
func NewClient(bus canbus.Bus) *Client {
	return &Client{Bus: bus}
}

// SetRPM requests electrical RPM on controller id.
func (c *Client) SetRPM(id uint8, rpm int32) error {
	return c.send(id, CmdSetRPM, rpm)
}

// SetCurrent requests motor current in amps on controller id.
func (c *Client) SetCurrent(id uint8, amps float32) error {
	return c.send(id, CmdSetCurrent, int32(amps*1000))
}

// SetDuty requests a duty cycle in [-1, 1] on controller id.
func (c *Client) SetDuty(id uint8, duty float32) error {
	return c.send(id, CmdSetDuty, int32(duty*100000))
}

func (c *Client) send(id uint8, cmd Command, v int32) error {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(v))
	return c.Bus.Send(canbus.Frame{ID: FrameID(id, cmd), Extended: true, Data: data})
}
