// Package uartcomm bridges a MAVLink serial link to VESC controllers on
// a CAN bus.
//
// Bytes are received into a double-buffered area. Each completed half
// wakes a single worker which feeds it to the MAVLink parser. Every
// SERVO_OUTPUT_RAW sets the RPM of controllers 1 to 4 and is answered
// with an ESC_STATUS built from the fresh entries of the CAN status
// table. All transmissions on the link go through one guard which waits
// for the previous send to finish before reusing the transmit slot.
package uartcomm
