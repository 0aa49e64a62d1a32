package uartcomm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/uartcomm/pkg/esc"
	"github.com/robotalks/uartcomm/pkg/framework"
	"github.com/robotalks/uartcomm/pkg/mavlink"
	"github.com/robotalks/uartcomm/pkg/packet"
	"github.com/robotalks/uartcomm/pkg/uart"
)

// Link defaults.
const (
	DefaultBufferSize   = 10
	DefaultSystemID     = 0
	DefaultComponentID  = 100
	DefaultPollInterval = time.Millisecond
	// PacketHandlerID identifies this link to the packet layer.
	PacketHandlerID = 1
	// MaxStatusAge is the age at which a controller status is left out
	// of replies.
	MaxStatusAge = 100 * time.Millisecond
	// Channels is the number of controllers commanded per message,
	// addressed as ids 1 to Channels.
	Channels = 4
)

// StatusSource provides the cached controller statuses.
type StatusSource interface {
	Len() int
	Slot(i int) esc.Status
}

// RPMSetter commands a controller.
type RPMSetter interface {
	SetRPM(id uint8, rpm int32) error
}

// Config configures a Bridge. Zero fields take defaults.
type Config struct {
	BaudRate     int
	BufferSize   int
	SystemID     byte
	ComponentID  byte
	PollInterval time.Duration
	Clock        framework.TimeSource
}

// DefaultConfig returns the settings of the link.
func DefaultConfig() Config {
	return Config{
		BaudRate:     uart.DefaultBaudRate,
		BufferSize:   DefaultBufferSize,
		SystemID:     DefaultSystemID,
		ComponentID:  DefaultComponentID,
		PollInterval: DefaultPollInterval,
		Clock:        framework.SystemClock,
	}
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	Halves   uint64
	Messages uint64
	Replies  uint64
	Dropped  uint32
	BaudRate int
	Active   bool
}

// Bridge is the serial to CAN bridge. Create one with New, then Start it.
type Bridge struct {
	// OnReply, if set, is called from the worker after each reply has
	// been handed to the transmitter. It must be set before Start.
	OnReply func(mavlink.ESCStatus)

	driver  uart.Driver
	status  StatusSource
	motors  RPMSetter
	clock   framework.TimeSource
	rx      *uart.ReceiveBuffer
	parser  mavlink.Parser
	encoder mavlink.Encoder
	guard   *transmitGuard
	packets packet.Handler
	signal  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}

	lock     sync.Mutex
	baudRate int
	active   bool
	spawn    sync.Once
	workers  atomic.Int32

	halves   atomic.Uint64
	messages atomic.Uint64
	replies  atomic.Uint64
	dropped  atomic.Uint32
}

// New creates a Bridge over driver, reading statuses from status and
// commanding controllers through motors.
func New(conf Config, driver uart.Driver, status StatusSource, motors RPMSetter) *Bridge {
	def := DefaultConfig()
	if conf.BaudRate <= 0 {
		conf.BaudRate = def.BaudRate
	}
	if conf.BufferSize <= 0 {
		conf.BufferSize = def.BufferSize
	}
	if conf.PollInterval <= 0 {
		conf.PollInterval = def.PollInterval
	}
	if conf.Clock == nil {
		conf.Clock = def.Clock
	}
	b := &Bridge{
		driver:   driver,
		status:   status,
		motors:   motors,
		clock:    conf.Clock,
		rx:       uart.NewReceiveBuffer(conf.BufferSize),
		encoder:  mavlink.Encoder{SystemID: conf.SystemID, ComponentID: conf.ComponentID},
		guard:    newTransmitGuard(driver, conf.PollInterval),
		signal:   make(chan struct{}, 1),
		exited:   make(chan struct{}),
		baudRate: conf.BaudRate,
	}
	b.packets = packet.Handler{ID: PacketHandlerID, Send: b.guard.send}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return b
}

// Start resets the receive cursors, starts the worker on first use,
// starts the driver and arms reception.
func (b *Bridge) Start() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.spawn.Do(func() {
		b.workers.Add(1)
		go b.work()
	})
	return b.restartLocked()
}

// Stop stops the driver. The worker keeps running so Stop may be called
// from a reply hook.
func (b *Bridge) Stop() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.active {
		return nil
	}
	b.active = false
	return b.driver.Stop()
}

// Configure sets the baud rate. An active link is restarted at the new
// rate, otherwise the rate is used by the next Start.
func (b *Bridge) Configure(baudRate int) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.baudRate = baudRate
	if !b.active {
		return nil
	}
	glog.Infof("uartcomm: reconfigure to %d baud", baudRate)
	return b.restartLocked()
}

// Run implements framework.Runnable: the link is active until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return b.Stop()
}

// Close stops the link and ends the worker.
func (b *Bridge) Close() error {
	err := b.Stop()
	b.cancel()
	return err
}

// SendPacket frames payload for the packet layer and sends it on the link.
func (b *Bridge) SendPacket(payload []byte) error {
	b.lock.Lock()
	active := b.active
	b.lock.Unlock()
	if !active {
		return ErrNotRunning
	}
	return b.packets.SendPacket(payload)
}

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() Stats {
	b.lock.Lock()
	baudRate, active := b.baudRate, b.active
	b.lock.Unlock()
	return Stats{
		Halves:   b.halves.Load(),
		Messages: b.messages.Load(),
		Replies:  b.replies.Load(),
		Dropped:  b.dropped.Load(),
		BaudRate: baudRate,
		Active:   active,
	}
}

// Status returns the status source the bridge aggregates from.
func (b *Bridge) Status() StatusSource {
	return b.status
}

func (b *Bridge) restartLocked() error {
	if b.active {
		b.active = false
		if err := b.driver.Stop(); err != nil {
			glog.Warningf("uartcomm: stop: %v", err)
		}
	}
	b.rx.Reset()
	if err := b.driver.Start(b.driverConfig()); err != nil {
		return err
	}
	b.active = true
	b.driver.StartReceive(b.rx.Target())
	return nil
}

func (b *Bridge) driverConfig() uart.Config {
	return uart.Config{
		BaudRate: b.baudRate,
		Callbacks: uart.Callbacks{
			TxEnd1: func() {},
			TxEnd2: func() {},
			RxEnd:  b.rxEnd,
			RxChar: func(uint16) {},
			// Corrupted frames are rejected by the MAVLink checksum.
			RxErr: func(f uart.Flags) { glog.V(3).Infof("uartcomm: rx error %#x", uint16(f)) },
		},
	}
}
