package canbus

import "encoding/binary"

// Flags carried in the identifier word of a SocketCAN frame.
const (
	flagEFF uint32 = 0x80000000
	flagRTR uint32 = 0x40000000
	flagERR uint32 = 0x20000000
)

// rawFrameLen is sizeof(struct can_frame).
const rawFrameLen = 16

func marshalRaw(f Frame) []byte {
	b := make([]byte, rawFrameLen)
	id := f.ID
	if f.Extended {
		id |= flagEFF
	}
	binary.NativeEndian.PutUint32(b[0:], id)
	b[4] = byte(len(f.Data))
	copy(b[8:], f.Data)
	return b
}

// unmarshalRaw decodes a can_frame. Remote and error frames are reported
// as not ok.
func unmarshalRaw(b []byte) (f Frame, ok bool) {
	if len(b) < rawFrameLen {
		return f, false
	}
	id := binary.NativeEndian.Uint32(b[0:])
	if id&(flagRTR|flagERR) != 0 {
		return f, false
	}
	n := int(b[4])
	if n > MaxDataLen {
		n = MaxDataLen
	}
	f.Extended = id&flagEFF != 0
	if f.Extended {
		f.ID = id & MaxExtendedID
	} else {
		f.ID = id & MaxStandardID
	}
	f.Data = append([]byte(nil), b[8:8+n]...)
	return f, true
}
