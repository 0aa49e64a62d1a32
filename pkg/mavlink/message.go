package mavlink

import "fmt"

// Frame start markers.
const (
	MagicV1 byte = 0xfe
	MagicV2 byte = 0xfd
)

// IncompatFlagSigned marks a v2 frame followed by a signature.
const IncompatFlagSigned byte = 0x01

const (
	headerLenV1   = 5
	headerLenV2   = 9
	signatureLen  = 13
	maxPayloadLen = 255
	// MaxFrameLen is the longest frame on the wire.
	MaxFrameLen = 1 + headerLenV2 + maxPayloadLen + 2 + signatureLen
)

// Message ids.
const (
	MsgIDHeartbeat      uint32 = 0
	MsgIDServoOutputRaw uint32 = 36
	MsgIDESCStatus      uint32 = 291
)

// MessageInfo describes a message's payload geometry and checksum seed.
type MessageInfo struct {
	ID       uint32
	Name     string
	MinLen   int
	MaxLen   int
	CRCExtra byte
}

// Messages is the table of messages understood by this package.
var Messages = map[uint32]MessageInfo{
	MsgIDHeartbeat:      {ID: MsgIDHeartbeat, Name: "HEARTBEAT", MinLen: 9, MaxLen: 9, CRCExtra: 50},
	MsgIDServoOutputRaw: {ID: MsgIDServoOutputRaw, Name: "SERVO_OUTPUT_RAW", MinLen: 21, MaxLen: 37, CRCExtra: 222},
	MsgIDESCStatus:      {ID: MsgIDESCStatus, Name: "ESC_STATUS", MinLen: 57, MaxLen: 57, CRCExtra: 10},
}

// UnknownMessageError indicates a message id missing from Messages.
type UnknownMessageError struct {
	ID uint32
}

// Error implements error.
func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("unknown message id %d", e.ID)
}

// Message is a decoded frame.
type Message struct {
	Version       int
	IncompatFlags byte
	CompatFlags   byte
	Seq           byte
	SystemID      byte
	ComponentID   byte
	ID            uint32
	// Payload is zero-extended to the message's full length.
	Payload   []byte
	Signature []byte
}

// Name returns the message name or its numeric id when unknown.
func (m *Message) Name() string {
	if info, ok := Messages[m.ID]; ok {
		return info.Name
	}
	return fmt.Sprintf("#%d", m.ID)
}
