package mavlink

import "math"

// Heartbeat is the HEARTBEAT message.
type Heartbeat struct {
	Type           uint8
	Autopilot      uint8
	BaseMode       uint8
	CustomMode     uint32
	SystemStatus   uint8
	MAVLinkVersion uint8
}

// Marshal encodes the payload in wire order.
func (m *Heartbeat) Marshal() []byte {
	b := make([]byte, 9)
	le.PutUint32(b[0:], m.CustomMode)
	b[4], b[5], b[6], b[7], b[8] = m.Type, m.Autopilot, m.BaseMode, m.SystemStatus, m.MAVLinkVersion
	return b
}

// Unmarshal decodes a full length payload.
func (m *Heartbeat) Unmarshal(b []byte) {
	m.CustomMode = le.Uint32(b[0:])
	m.Type, m.Autopilot, m.BaseMode, m.SystemStatus, m.MAVLinkVersion = b[4], b[5], b[6], b[7], b[8]
}

// ServoOutputRaw is the SERVO_OUTPUT_RAW message carrying raw actuator
// setpoints. Servo[8:] are v2 extension fields.
type ServoOutputRaw struct {
	TimeUsec uint32
	Port     uint8
	Servo    [16]uint16
}

// Marshal encodes the payload in wire order.
func (m *ServoOutputRaw) Marshal() []byte {
	b := make([]byte, 37)
	le.PutUint32(b[0:], m.TimeUsec)
	for i := 0; i < 8; i++ {
		le.PutUint16(b[4+2*i:], m.Servo[i])
	}
	b[20] = m.Port
	for i := 8; i < 16; i++ {
		le.PutUint16(b[21+2*(i-8):], m.Servo[i])
	}
	return b
}

// Unmarshal decodes a full length payload.
func (m *ServoOutputRaw) Unmarshal(b []byte) {
	m.TimeUsec = le.Uint32(b[0:])
	for i := 0; i < 8; i++ {
		m.Servo[i] = le.Uint16(b[4+2*i:])
	}
	m.Port = b[20]
	for i := 8; i < 16; i++ {
		m.Servo[i] = le.Uint16(b[21+2*(i-8):])
	}
}

// DecodeServoOutputRaw decodes msg if it is a SERVO_OUTPUT_RAW.
func DecodeServoOutputRaw(msg *Message) (m ServoOutputRaw, ok bool) {
	if msg == nil || msg.ID != MsgIDServoOutputRaw || len(msg.Payload) < 37 {
		return m, false
	}
	m.Unmarshal(msg.Payload)
	return m, true
}

// ESCStatusChannels is the number of ESCs reported per ESC_STATUS.
const ESCStatusChannels = 4

// ESCStatus is the ESC_STATUS message.
type ESCStatus struct {
	Index    uint8
	TimeUsec uint64
	RPM      [ESCStatusChannels]int32
	Voltage  [ESCStatusChannels]float32
	Current  [ESCStatusChannels]float32
}

// Marshal encodes the payload in wire order.
func (m *ESCStatus) Marshal() []byte {
	b := make([]byte, 57)
	le.PutUint64(b[0:], m.TimeUsec)
	for i := 0; i < ESCStatusChannels; i++ {
		le.PutUint32(b[8+4*i:], uint32(m.RPM[i]))
		le.PutUint32(b[24+4*i:], math.Float32bits(m.Voltage[i]))
		le.PutUint32(b[40+4*i:], math.Float32bits(m.Current[i]))
	}
	b[56] = m.Index
	return b
}

// Unmarshal decodes a full length payload.
func (m *ESCStatus) Unmarshal(b []byte) {
	m.TimeUsec = le.Uint64(b[0:])
	for i := 0; i < ESCStatusChannels; i++ {
		m.RPM[i] = int32(le.Uint32(b[8+4*i:]))
		m.Voltage[i] = math.Float32frombits(le.Uint32(b[24+4*i:]))
		m.Current[i] = math.Float32frombits(le.Uint32(b[40+4*i:]))
	}
	m.Index = b[56]
}

// DecodeESCStatus decodes msg if it is an ESC_STATUS.
func DecodeESCStatus(msg *Message) (m ESCStatus, ok bool) {
	if msg == nil || msg.ID != MsgIDESCStatus || len(msg.Payload) < 57 {
		return m, false
	}
	m.Unmarshal(msg.Payload)
	return m, true
}
