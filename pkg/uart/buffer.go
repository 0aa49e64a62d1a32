package uart

import (
	"fmt"
	"sync/atomic"
)

// ReceiveBuffer is a fixed receive area split into two equal halves.
// The driver fills the half returned by Target while the consumer reads
// the half returned by Completed.
type ReceiveBuffer struct {
	data  []byte
	half  int
	write atomic.Int32
	last  atomic.Int32
}

// NewReceiveBuffer creates a ReceiveBuffer. capacity must be even and positive.
func NewReceiveBuffer(capacity int) *ReceiveBuffer {
	if capacity <= 0 || capacity%2 != 0 {
		panic(fmt.Sprintf("uart: invalid receive buffer capacity %d", capacity))
	}
	return &ReceiveBuffer{data: make([]byte, capacity), half: capacity / 2}
}

// Capacity returns the total size in bytes.
func (b *ReceiveBuffer) Capacity() int {
	return len(b.data)
}

// HalfSize returns the size of one half in bytes.
func (b *ReceiveBuffer) HalfSize() int {
	return b.half
}

// WriteHalf returns the index of the half targeted by the driver.
func (b *ReceiveBuffer) WriteHalf() int {
	return int(b.write.Load())
}

// LastHalf returns the index of the half most recently completed.
func (b *ReceiveBuffer) LastHalf() int {
	return int(b.last.Load())
}

// Half returns the slice of half i.
func (b *ReceiveBuffer) Half(i int) []byte {
	return b.data[i*b.half : (i+1)*b.half]
}

// Target returns the half the driver should be writing.
func (b *ReceiveBuffer) Target() []byte {
	return b.Half(b.WriteHalf())
}

// Completed returns the half most recently completed.
func (b *ReceiveBuffer) Completed() []byte {
	return b.Half(b.LastHalf())
}

// Complete records the target half as completed and moves the target to
// the other half, which is returned. It does not allocate.
func (b *ReceiveBuffer) Complete() []byte {
	w := b.write.Load()
	b.last.Store(w)
	w++
	if int(w)*b.half >= len(b.data) {
		w = 0
	}
	b.write.Store(w)
	return b.Half(int(w))
}

// Reset moves the write cursor back to the start of the buffer. The last
// completed half is kept, so a pending completion is still read from the
// half that was filled.
func (b *ReceiveBuffer) Reset() {
	b.write.Store(0)
}
