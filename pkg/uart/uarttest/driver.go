// Package uarttest provides a deterministic uart.Driver for tests.
package uarttest

import (
	"sync"
	"sync/atomic"

	"github.com/robotalks/uartcomm/pkg/uart"
)

// Driver is an in-memory uart.Driver. Bytes are injected with Feed and
// sends stay in progress until CompleteSend is called, unless AutoComplete
// is set. Callbacks run synchronously in the goroutine calling Feed or
// CompleteSend, which plays the role of the interrupt context.
type Driver struct {
	AutoComplete bool

	mu      sync.Mutex
	conf    uart.Config
	started bool
	starts  []uart.Config
	stops   int
	rxDst   []byte
	rxPos   int
	sent    [][]byte
	overlap int

	txActive atomic.Bool
}

// New creates a Driver.
func New() *Driver {
	return &Driver{}
}

// Start implements uart.Driver.
func (d *Driver) Start(conf uart.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conf, d.started = conf, true
	d.starts = append(d.starts, conf)
	d.rxDst, d.rxPos = nil, 0
	d.txActive.Store(false)
	return nil
}

// Stop implements uart.Driver.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		d.stops++
	}
	d.started = false
	d.rxDst = nil
	d.txActive.Store(false)
	return nil
}

// StartReceive implements uart.Driver.
func (d *Driver) StartReceive(dst []byte) {
	d.mu.Lock()
	d.rxDst, d.rxPos = dst, 0
	d.mu.Unlock()
}

// StartSend implements uart.Driver.
func (d *Driver) StartSend(src []byte) {
	d.mu.Lock()
	if d.txActive.Load() {
		d.overlap++
	}
	// The copy is taken when the send starts, the caller's slice must
	// stay unchanged until completion like with real hardware.
	d.sent = append(d.sent, append([]byte(nil), src...))
	d.txActive.Store(true)
	auto := d.AutoComplete
	d.mu.Unlock()
	if auto {
		d.CompleteSend()
	}
}

// TxActive implements uart.Driver.
func (d *Driver) TxActive() bool {
	return d.txActive.Load()
}

// Feed delivers bytes as if received on the wire.
func (d *Driver) Feed(data ...byte) {
	for _, b := range data {
		d.mu.Lock()
		cb := d.conf.Callbacks
		if !d.started || d.rxDst == nil {
			d.mu.Unlock()
			if d.started && cb.RxChar != nil {
				cb.RxChar(uint16(b))
			}
			continue
		}
		d.rxDst[d.rxPos] = b
		d.rxPos++
		full := d.rxPos >= len(d.rxDst)
		if full {
			d.rxDst, d.rxPos = nil, 0
		}
		d.mu.Unlock()
		if full && cb.RxEnd != nil {
			cb.RxEnd()
		}
	}
}

// CompleteSend finishes the send in progress.
func (d *Driver) CompleteSend() {
	d.mu.Lock()
	cb := d.conf.Callbacks
	d.mu.Unlock()
	if cb.TxEnd1 != nil {
		cb.TxEnd1()
	}
	d.txActive.Store(false)
	if cb.TxEnd2 != nil {
		cb.TxEnd2()
	}
}

// Started reports whether the driver is started.
func (d *Driver) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Config returns the config of the last Start.
func (d *Driver) Config() uart.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conf
}

// Starts returns the configs passed to every Start call.
func (d *Driver) Starts() []uart.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uart.Config(nil), d.starts...)
}

// Stops returns how many times a started driver was stopped.
func (d *Driver) Stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

// Sent returns copies of all sends started so far.
func (d *Driver) Sent() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.sent...)
}

// Overlaps returns how many sends were started while another was active.
func (d *Driver) Overlaps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overlap
}
