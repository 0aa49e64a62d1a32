package mavlink

import (
	"encoding/binary"
	"fmt"
)

var le = binary.LittleEndian

// Encoder packs messages into frames. It keeps the outgoing sequence
// number, so one Encoder should be used per link.
type Encoder struct {
	SystemID    byte
	ComponentID byte
	// Version selects the frame format, 2 unless set to 1.
	Version int

	seq byte
}

// Pack frames a payload for the message id.
func (e *Encoder) Pack(id uint32, payload []byte) ([]byte, error) {
	info, ok := Messages[id]
	if !ok {
		return nil, &UnknownMessageError{ID: id}
	}
	if len(payload) > info.MaxLen {
		return nil, fmt.Errorf("%s payload too long: %d > %d", info.Name, len(payload), info.MaxLen)
	}
	if e.Version == 1 {
		return e.packV1(info, payload)
	}

	// v2 drops trailing zero bytes, keeping at least one.
	n := len(payload)
	for n > 1 && payload[n-1] == 0 {
		n--
	}
	frame := make([]byte, 1+headerLenV2+n+2)
	frame[0] = MagicV2
	frame[1] = byte(n)
	frame[4], frame[5], frame[6] = e.seq, e.SystemID, e.ComponentID
	frame[7], frame[8], frame[9] = byte(id), byte(id>>8), byte(id>>16)
	copy(frame[1+headerLenV2:], payload[:n])
	le.PutUint16(frame[1+headerLenV2+n:], checksum(frame[1:1+headerLenV2+n], info.CRCExtra))
	e.seq++
	return frame, nil
}

func (e *Encoder) packV1(info MessageInfo, payload []byte) ([]byte, error) {
	if info.ID > 0xff {
		return nil, fmt.Errorf("%s can not be sent in a v1 frame", info.Name)
	}
	// Extension fields are not carried by v1 frames.
	n := info.MinLen
	frame := make([]byte, 1+headerLenV1+n+2)
	frame[0] = MagicV1
	frame[1] = byte(n)
	frame[2], frame[3], frame[4] = e.seq, e.SystemID, e.ComponentID
	frame[5] = byte(info.ID)
	copy(frame[1+headerLenV1:1+headerLenV1+n], payload)
	le.PutUint16(frame[1+headerLenV1+n:], checksum(frame[1:1+headerLenV1+n], info.CRCExtra))
	e.seq++
	return frame, nil
}

// PackHeartbeat frames a HEARTBEAT.
func (e *Encoder) PackHeartbeat(m Heartbeat) ([]byte, error) {
	return e.Pack(MsgIDHeartbeat, m.Marshal())
}

// PackServoOutputRaw frames a SERVO_OUTPUT_RAW.
func (e *Encoder) PackServoOutputRaw(m ServoOutputRaw) ([]byte, error) {
	return e.Pack(MsgIDServoOutputRaw, m.Marshal())
}

// PackESCStatus frames an ESC_STATUS.
func (e *Encoder) PackESCStatus(m ESCStatus) ([]byte, error) {
	return e.Pack(MsgIDESCStatus, m.Marshal())
}
