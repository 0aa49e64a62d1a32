package mavlink

// Status counts the outcome of parsed frames.
type Status struct {
	Received uint32
	Dropped  uint32
}

// Parser parses bytes received. The zero value is ready for use and its
// state persists across calls, so a frame may be split over any number
// of Parse calls.
type Parser struct {
	Status Status

	state   parseState
	version int
	info    *MessageInfo
	buf     [headerLenV2 + maxPayloadLen]byte
	bufLen  int
	payLen  int
	crc     uint16
	sig     [signatureLen]byte
	sigRecv int
}

type parseState int

const (
	stateIdle      parseState = iota // waiting for a start marker
	stateHeader                      // collecting header bytes
	statePayload                     // collecting payload bytes
	stateCRC1                        // waiting for checksum low byte
	stateCRC2                        // waiting for checksum high byte
	stateSignature                   // collecting v2 signature bytes
)

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state, p.info, p.bufLen = stateIdle, nil, 0
}

// Parse consumes one byte and returns a message when it completes a valid
// frame. Invalid frames are dropped silently and counted in Status.
func (p *Parser) Parse(b byte) *Message {
	switch p.state {
	case stateIdle:
		p.begin(b)
	case stateHeader:
		p.buf[p.bufLen] = b
		p.bufLen++
		if p.bufLen == p.headerLen() {
			p.header()
		}
	case statePayload:
		p.buf[p.bufLen] = b
		p.bufLen++
		if p.bufLen == p.headerLen()+p.payLen {
			p.state = stateCRC1
		}
	case stateCRC1:
		p.crc, p.state = uint16(b), stateCRC2
	case stateCRC2:
		p.crc |= uint16(b) << 8
		if p.info == nil || p.crc != checksum(p.buf[:p.bufLen], p.info.CRCExtra) {
			p.drop()
			// The failed byte may start the next frame.
			p.begin(b)
			return nil
		}
		if p.version == 2 && p.buf[1]&IncompatFlagSigned != 0 {
			p.state, p.sigRecv = stateSignature, 0
			return nil
		}
		return p.ready()
	case stateSignature:
		p.sig[p.sigRecv] = b
		p.sigRecv++
		if p.sigRecv == signatureLen {
			return p.ready()
		}
	}
	return nil
}

func (p *Parser) begin(b byte) {
	switch b {
	case MagicV1:
		p.state, p.version, p.bufLen = stateHeader, 1, 0
	case MagicV2:
		p.state, p.version, p.bufLen = stateHeader, 2, 0
	default:
		p.state = stateIdle
	}
}

func (p *Parser) headerLen() int {
	if p.version == 1 {
		return headerLenV1
	}
	return headerLenV2
}

func (p *Parser) header() {
	p.payLen = int(p.buf[0])
	var id uint32
	if p.version == 1 {
		id = uint32(p.buf[4])
	} else {
		if p.buf[1]&^IncompatFlagSigned != 0 {
			// Unsupported incompatibility flags.
			p.drop()
			return
		}
		id = uint32(p.buf[6]) | uint32(p.buf[7])<<8 | uint32(p.buf[8])<<16
	}
	p.info = nil
	if info, ok := Messages[id]; ok {
		if p.payLen > info.MaxLen || (p.version == 1 && p.payLen < info.MinLen) {
			p.drop()
			return
		}
		p.info = &info
	}
	if p.payLen == 0 {
		p.state = stateCRC1
	} else {
		p.state = statePayload
	}
}

func (p *Parser) drop() {
	p.Status.Dropped++
	p.Reset()
}

func (p *Parser) ready() *Message {
	hl := p.headerLen()
	msg := &Message{Version: p.version, ID: p.info.ID}
	if p.version == 1 {
		msg.Seq, msg.SystemID, msg.ComponentID = p.buf[1], p.buf[2], p.buf[3]
	} else {
		msg.IncompatFlags, msg.CompatFlags = p.buf[1], p.buf[2]
		msg.Seq, msg.SystemID, msg.ComponentID = p.buf[3], p.buf[4], p.buf[5]
		if msg.IncompatFlags&IncompatFlagSigned != 0 {
			msg.Signature = append([]byte(nil), p.sig[:]...)
		}
	}
	size := p.info.MaxLen
	if p.payLen > size {
		size = p.payLen
	}
	msg.Payload = make([]byte, size)
	copy(msg.Payload, p.buf[hl:hl+p.payLen])
	p.Status.Received++
	p.Reset()
	return msg
}
