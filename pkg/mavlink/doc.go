// Package mavlink implements the subset of the MAVLink telemetry protocol
// spoken on the serial link: a byte-at-a-time frame parser for v1 and v2
// frames, and a v2 frame encoder.
//
// Only the messages exchanged by the bridge are described in the message
// table. Frames carrying other message ids are consumed by length and
// dropped since their checksum seed is unknown.
package mavlink
