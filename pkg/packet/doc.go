// Package packet implements the VESC command/response framing.
//
// A packet is a start byte selecting the width of the length field,
// the big-endian length, the payload, a CRC-16/XMODEM of the payload
// (big-endian) and a stop byte:
//
//	[2][len8]payload[crc_hi][crc_lo][3]
//	[3][len16]payload[crc_hi][crc_lo][3]
//	[4][len24]payload[crc_hi][crc_lo][3]
package packet
