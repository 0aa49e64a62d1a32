package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	require.EqualValues(t, 0x31c3, Checksum([]byte("123456789")))
}

func TestEncode(t *testing.T) {
	b, err := Encode([]byte("123456789"))
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{2, 9}, "123456789"...), 0x31, 0xc3, 3), b)

	long := bytes.Repeat([]byte{0xaa}, 300)
	b, err = Encode(long)
	require.NoError(t, err)
	require.Len(t, b, 300+6)
	require.Equal(t, []byte{3, 0x01, 0x2c}, b[:3])
	require.EqualValues(t, 3, b[len(b)-1])

	_, err = Encode(nil)
	require.Equal(t, ErrEmptyPayload, err)

	_, err = Encode(make([]byte, MaxPayloadLen+1))
	var tooLarge *PayloadTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	require.Equal(t, MaxPayloadLen+1, tooLarge.Len)
}

func TestHandlerSendPacket(t *testing.T) {
	var sent [][]byte
	h := &Handler{ID: 1, Send: func(b []byte) error {
		sent = append(sent, b)
		return nil
	}}
	require.NoError(t, h.SendPacket([]byte{1, 2, 3}))
	require.Len(t, sent, 1)
	want, err := Encode([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, want, sent[0])

	require.Error(t, h.SendPacket(nil))
	require.Len(t, sent, 1)
}

func TestDecoder(t *testing.T) {
	var got [][]byte
	d := &Decoder{OnPacket: func(p []byte) { got = append(got, p) }}

	a, err := Encode([]byte{0x10, 0x20})
	require.NoError(t, err)
	b, err := Encode(bytes.Repeat([]byte{0x55}, 400))
	require.NoError(t, err)
	bad := append([]byte{}, a...)
	bad[2] ^= 0xff

	stream := [][]byte{{0xff, 0x00}, a, bad, b, a}
	for _, chunk := range stream {
		_, err := d.Write(chunk)
		require.NoError(t, err)
	}
	require.Len(t, got, 3)
	require.Equal(t, []byte{0x10, 0x20}, got[0])
	require.Len(t, got[1], 400)
	require.Equal(t, []byte{0x10, 0x20}, got[2])
	require.EqualValues(t, 1, d.Dropped)
}

func TestDecoderRejectsLength(t *testing.T) {
	d := &Decoder{OnPacket: func([]byte) { t.Fatal("unexpected packet") }}
	d.Write([]byte{3, 0x02, 0x01})
	require.EqualValues(t, 1, d.Dropped)
	d.Write([]byte{2, 0})
	require.EqualValues(t, 2, d.Dropped)
}

func TestMaxFrameLen(t *testing.T) {
	b, err := Encode(make([]byte, MaxPayloadLen))
	require.NoError(t, err)
	require.Len(t, b, MaxFrameLen)
}
