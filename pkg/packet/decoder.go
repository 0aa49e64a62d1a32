package packet

// Decoder reassembles packets from a byte stream. Bytes that do not form
// a valid packet are skipped until the next start byte.
type Decoder struct {
	// OnPacket receives each payload. The slice is owned by the callee.
	OnPacket func(payload []byte)
	// Dropped counts packets rejected for length, checksum or stop byte.
	Dropped uint32

	state   decodeState
	lenLeft int
	length  int
	payload []byte
	crc     uint16
}

type decodeState int

const (
	stateStart   decodeState = iota // waiting for start byte
	stateLength                     // collecting length bytes
	statePayload                    // collecting payload
	stateCRCHi                      // waiting for checksum high byte
	stateCRCLo                      // waiting for checksum low byte
	stateStop                       // waiting for stop byte
)

// Reset drops any partial packet.
func (d *Decoder) Reset() {
	d.state, d.payload = stateStart, nil
}

// Write implements io.Writer so a Decoder can be fed from io.Copy.
func (d *Decoder) Write(b []byte) (int, error) {
	for _, c := range b {
		d.Decode(c)
	}
	return len(b), nil
}

// Decode consumes one byte.
func (d *Decoder) Decode(b byte) {
	switch d.state {
	case stateStart:
		switch b {
		case startShort, startMedium, startLong:
			d.state, d.lenLeft, d.length = stateLength, int(b-1), 0
		}
	case stateLength:
		d.length = d.length<<8 | int(b)
		if d.lenLeft--; d.lenLeft > 0 {
			return
		}
		if d.length == 0 || d.length > MaxPayloadLen {
			d.drop()
			return
		}
		d.payload, d.state = make([]byte, 0, d.length), statePayload
	case statePayload:
		d.payload = append(d.payload, b)
		if len(d.payload) == d.length {
			d.state = stateCRCHi
		}
	case stateCRCHi:
		d.crc, d.state = uint16(b)<<8, stateCRCLo
	case stateCRCLo:
		d.crc |= uint16(b)
		d.state = stateStop
	case stateStop:
		if b != stop || d.crc != Checksum(d.payload) {
			d.drop()
			return
		}
		payload := d.payload
		d.Reset()
		if d.OnPacket != nil {
			d.OnPacket(payload)
		}
	}
}

func (d *Decoder) drop() {
	d.Dropped++
	d.Reset()
}
