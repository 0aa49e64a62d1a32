package mavlink

import "github.com/sigurn/crc16"

// X.25 as used by MAVLink: reflected 0x1021, init 0xffff, no final xor.
var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// checksum computes the frame checksum over data followed by the
// message's CRC_EXTRA seed. It does not allocate.
func checksum(data []byte, extra byte) uint16 {
	seed := [1]byte{extra}
	crc := crc16.Update(crc16.Init(crcTable), data, crcTable)
	crc = crc16.Update(crc, seed[:], crcTable)
	return crc16.Complete(crc, crcTable)
}
