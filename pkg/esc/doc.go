// Package esc speaks the VESC CAN protocol: commands addressed to a
// controller id and the periodic status frames controllers broadcast.
package esc
