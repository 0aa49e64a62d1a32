package packet

import (
	"errors"
	"fmt"

	"github.com/sigurn/crc16"
)

const (
	startShort  byte = 2
	startMedium byte = 3
	startLong   byte = 4
	stop        byte = 3

	// MaxPayloadLen is the largest payload accepted by Encode and Decoder.
	MaxPayloadLen = 512
	// MaxFrameLen is the largest encoded packet: start byte, two length
	// bytes, payload, checksum and stop byte.
	MaxFrameLen = MaxPayloadLen + 6
)

var (
	// ErrEmptyPayload indicates a zero-length payload.
	ErrEmptyPayload = errors.New("empty payload")

	crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)
)

// PayloadTooLargeError is returned for payloads over MaxPayloadLen.
type PayloadTooLargeError struct {
	Len int
}

// Error implements error.
func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %d > %d", e.Len, MaxPayloadLen)
}

// Checksum computes the payload checksum.
func Checksum(payload []byte) uint16 {
	return crc16.Checksum(payload, crcTable)
}

// Encode frames a payload.
func Encode(payload []byte) ([]byte, error) {
	n := len(payload)
	if n == 0 {
		return nil, ErrEmptyPayload
	}
	if n > MaxPayloadLen {
		return nil, &PayloadTooLargeError{Len: n}
	}
	b := make([]byte, 0, n+7)
	switch {
	case n <= 0xff:
		b = append(b, startShort, byte(n))
	case n <= 0xffff:
		b = append(b, startMedium, byte(n>>8), byte(n))
	default:
		b = append(b, startLong, byte(n>>16), byte(n>>8), byte(n))
	}
	crc := Checksum(payload)
	b = append(b, payload...)
	return append(b, byte(crc>>8), byte(crc), stop), nil
}

// Handler sends framed packets over one link.
type Handler struct {
	// ID identifies the link the handler serves.
	ID   int
	Send func([]byte) error
}

// SendPacket frames payload and hands it to Send.
func (h *Handler) SendPacket(payload []byte) error {
	b, err := Encode(payload)
	if err != nil {
		return err
	}
	return h.Send(b)
}
