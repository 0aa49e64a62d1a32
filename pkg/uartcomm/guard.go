package uartcomm

import (
	"errors"
	"sync"
	"time"

	"github.com/robotalks/uartcomm/pkg/packet"
	"github.com/robotalks/uartcomm/pkg/uart"
)

var (
	// ErrFrameTooLarge is returned for sends exceeding the transmit slot.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrNotRunning is returned by SendPacket while the link is stopped.
	ErrNotRunning = errors.New("link not running")
)

// transmitGuard owns the single transmit slot of the link.
type transmitGuard struct {
	driver uart.Driver
	poll   time.Duration

	lock sync.Mutex
	slot [packet.MaxFrameLen]byte
}

func newTransmitGuard(driver uart.Driver, poll time.Duration) *transmitGuard {
	return &transmitGuard{driver: driver, poll: poll}
}

// send waits for the previous send to complete, copies b into the slot
// and starts sending it.
func (g *transmitGuard) send(b []byte) error {
	if len(b) > len(g.slot) {
		return ErrFrameTooLarge
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	for g.driver.TxActive() {
		time.Sleep(g.poll)
	}
	n := copy(g.slot[:], b)
	g.driver.StartSend(g.slot[:n])
	return nil
}
