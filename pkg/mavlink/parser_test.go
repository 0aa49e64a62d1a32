package mavlink

import (
	"errors"
	"testing"

	"github.com/sigurn/crc16"
	"github.com/stretchr/testify/require"
)

func feed(p *Parser, data ...[]byte) (msgs []*Message) {
	for _, chunk := range data {
		for _, b := range chunk {
			if msg := p.Parse(b); msg != nil {
				msgs = append(msgs, msg)
			}
		}
	}
	return
}

func testESCStatus() ESCStatus {
	return ESCStatus{
		Index:    4,
		TimeUsec: 123456789,
		RPM:      [4]int32{1000, -2000, 0, 40000},
		Voltage:  [4]float32{12.5, 12.25, 0, 11},
		Current:  [4]float32{1.5, 0, -0.5, 3},
	}
}

// packWithPlainTail returns a frame whose last byte can not start a frame,
// so corrupting it leaves the parser idle.
func packWithPlainTail(t *testing.T, e *Encoder) []byte {
	m := testESCStatus()
	for {
		frame, err := e.PackESCStatus(m)
		require.NoError(t, err)
		if tail := frame[len(frame)-1]; tail != MagicV1 && tail != MagicV2 {
			return frame
		}
		m.TimeUsec++
	}
}

func resign(frame []byte, extra byte) {
	n := len(frame) - 2
	le.PutUint16(frame[n:], checksum(frame[1:n], extra))
}

func TestChecksum(t *testing.T) {
	require.EqualValues(t, 0x6f91, crc16.Checksum([]byte("123456789"), crcTable))

	data := []byte("12345678")
	require.Equal(t, crc16.Checksum([]byte("123456789"), crcTable), checksum(data, '9'))
	require.Zero(t, testing.AllocsPerRun(100, func() { checksum(data, 50) }))
}

func TestParserRoundTrip(t *testing.T) {
	e := &Encoder{SystemID: 1, ComponentID: 100}
	in := testESCStatus()
	frame, err := e.PackESCStatus(in)
	require.NoError(t, err)

	var p Parser
	msgs := feed(&p, frame)
	require.Len(t, msgs, 1)
	msg := msgs[0]
	require.Equal(t, 2, msg.Version)
	require.Equal(t, MsgIDESCStatus, msg.ID)
	require.Equal(t, "ESC_STATUS", msg.Name())
	require.EqualValues(t, 1, msg.SystemID)
	require.EqualValues(t, 100, msg.ComponentID)
	out, ok := DecodeESCStatus(msg)
	require.True(t, ok)
	require.Equal(t, in, out)
	require.Equal(t, Status{Received: 1}, p.Status)
}

func TestParserTruncatedPayload(t *testing.T) {
	e := &Encoder{}
	in := ServoOutputRaw{TimeUsec: 77, Servo: [16]uint16{1100, 1200, 1300, 1400}}
	frame, err := e.PackServoOutputRaw(in)
	require.NoError(t, err)
	// Trailing zero bytes are dropped on the wire.
	require.EqualValues(t, 12, frame[1])
	require.Len(t, frame, 1+headerLenV2+12+2)

	var p Parser
	msgs := feed(&p, frame)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Payload, 37)
	out, ok := DecodeServoOutputRaw(msgs[0])
	require.True(t, ok)
	require.Equal(t, in, out)
}

func TestParserSplitFeeding(t *testing.T) {
	e := &Encoder{}
	a, err := e.PackESCStatus(testESCStatus())
	require.NoError(t, err)
	b, err := e.PackHeartbeat(Heartbeat{Type: 2, MAVLinkVersion: 3})
	require.NoError(t, err)
	stream := append(append([]byte{}, a...), b...)

	for _, step := range []int{1, 2, 3, 7, 16, len(stream)} {
		var p Parser
		var msgs []*Message
		for i := 0; i < len(stream); i += step {
			end := i + step
			if end > len(stream) {
				end = len(stream)
			}
			msgs = append(msgs, feed(&p, stream[i:end])...)
		}
		require.Len(t, msgs, 2, "step %d", step)
		require.Equal(t, MsgIDESCStatus, msgs[0].ID)
		require.Equal(t, MsgIDHeartbeat, msgs[1].ID)
		require.EqualValues(t, 0, msgs[0].Seq)
		require.EqualValues(t, 1, msgs[1].Seq)
	}
}

func TestParserNoise(t *testing.T) {
	e := &Encoder{}
	frame, err := e.PackESCStatus(testESCStatus())
	require.NoError(t, err)
	noise := []byte{0x00, 0x55, 0xaa, 0xff, 0x01, 0xfc}

	var p Parser
	msgs := feed(&p, noise, frame, noise, frame, noise)
	require.Len(t, msgs, 2)
	require.Equal(t, Status{Received: 2}, p.Status)
}

func TestParserBadChecksum(t *testing.T) {
	e := &Encoder{}
	bad := packWithPlainTail(t, e)
	bad[len(bad)-2] ^= 0xff
	good, err := e.PackHeartbeat(Heartbeat{Type: 1})
	require.NoError(t, err)

	var p Parser
	msgs := feed(&p, bad, good)
	require.Len(t, msgs, 1)
	require.Equal(t, MsgIDHeartbeat, msgs[0].ID)
	require.Equal(t, Status{Received: 1, Dropped: 1}, p.Status)
}

func TestParserV1(t *testing.T) {
	e := &Encoder{Version: 1, SystemID: 9}
	in := ServoOutputRaw{TimeUsec: 5, Port: 1}
	for i := range in.Servo {
		in.Servo[i] = uint16(1000 + i)
	}
	frame, err := e.PackServoOutputRaw(in)
	require.NoError(t, err)
	require.Equal(t, MagicV1, frame[0])
	require.EqualValues(t, 21, frame[1])

	var p Parser
	msgs := feed(&p, frame)
	require.Len(t, msgs, 1)
	require.Equal(t, 1, msgs[0].Version)
	require.EqualValues(t, 9, msgs[0].SystemID)
	out, ok := DecodeServoOutputRaw(msgs[0])
	require.True(t, ok)
	// Extension fields are not carried by v1.
	want := in
	for i := 8; i < 16; i++ {
		want.Servo[i] = 0
	}
	require.Equal(t, want, out)
}

func TestParserSigned(t *testing.T) {
	e := &Encoder{}
	frame, err := e.PackHeartbeat(Heartbeat{Type: 6, CustomMode: 42})
	require.NoError(t, err)
	frame[2] |= IncompatFlagSigned
	resign(frame, Messages[MsgIDHeartbeat].CRCExtra)
	sig := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

	var p Parser
	require.Empty(t, feed(&p, frame, sig[:12]))
	msgs := feed(&p, sig[12:])
	require.Len(t, msgs, 1)
	require.Equal(t, sig, msgs[0].Signature)
	var hb Heartbeat
	hb.Unmarshal(msgs[0].Payload)
	require.Equal(t, Heartbeat{Type: 6, CustomMode: 42}, hb)
}

func TestParserDrops(t *testing.T) {
	e := &Encoder{}
	good, err := e.PackHeartbeat(Heartbeat{Type: 1})
	require.NoError(t, err)

	testCases := []struct {
		name string
		in   []byte
	}{
		{
			name: "unknown message",
			in:   []byte{MagicV2, 3, 0, 0, 0, 1, 1, 0xe7, 0x03, 0x00, 1, 2, 3, 0x00, 0x00},
		},
		{
			name: "payload too long",
			in:   []byte{MagicV2, 10, 0, 0, 0, 1, 1, 0x00, 0x00, 0x00},
		},
		{
			name: "unsupported incompat flags",
			in:   []byte{MagicV2, 9, 0x02, 0, 0, 1, 1, 0x00, 0x00, 0x00},
		},
		{
			name: "v1 payload too short",
			in:   []byte{MagicV1, 8, 0, 1, 1, 0x00},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			msgs := feed(&p, tc.in, good)
			require.Len(t, msgs, 1)
			require.Equal(t, MsgIDHeartbeat, msgs[0].ID)
			require.EqualValues(t, 1, p.Status.Dropped)
		})
	}
}

func TestEncoder(t *testing.T) {
	e := &Encoder{SystemID: 1, ComponentID: 2}

	frame, err := e.PackHeartbeat(Heartbeat{})
	require.NoError(t, err)
	// An all-zero payload keeps one byte.
	require.Len(t, frame, 1+headerLenV2+1+2)
	require.EqualValues(t, 0, frame[4])

	frame, err = e.PackHeartbeat(Heartbeat{})
	require.NoError(t, err)
	require.EqualValues(t, 1, frame[4])

	_, err = e.Pack(999, []byte{1})
	var unknown *UnknownMessageError
	require.True(t, errors.As(err, &unknown))
	require.EqualValues(t, 999, unknown.ID)

	_, err = e.Pack(MsgIDHeartbeat, make([]byte, 10))
	require.Error(t, err)

	v1 := &Encoder{Version: 1}
	_, err = v1.PackESCStatus(testESCStatus())
	require.Error(t, err)
}
