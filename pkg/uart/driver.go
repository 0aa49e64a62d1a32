package uart

// DefaultBaudRate is the link speed used when none is configured.
const DefaultBaudRate = 115200

// Flags reports receive errors detected by the driver.
type Flags uint16

// Receive error flags.
const (
	FlagParity Flags = 1 << iota
	FlagFraming
	FlagNoise
	FlagOverrun
	FlagIO
)

// Callbacks are invoked from the driver's completion context.
// They must not block.
type Callbacks struct {
	// TxEnd1 is invoked when the transmit buffer has been completely read.
	TxEnd1 func()
	// TxEnd2 is invoked when the transmission has physically completed.
	TxEnd2 func()
	// RxEnd is invoked when the armed receive destination is full.
	RxEnd func()
	// RxChar is invoked for a byte received while no destination is armed.
	RxChar func(c uint16)
	// RxErr is invoked on receive errors.
	RxErr func(Flags)
}

// Config is the driver configuration applied by Start.
type Config struct {
	BaudRate int
	Callbacks
}

// Driver is an asynchronous UART.
type Driver interface {
	// Start opens the hardware with the config, restarting it if active.
	Start(Config) error
	// Stop releases the hardware. It is safe to call when stopped.
	Stop() error
	// StartReceive arms reception into dst. RxEnd fires once dst is full.
	StartReceive(dst []byte)
	// StartSend starts sending src. TxActive reports true until completion.
	// src must not be modified until TxActive reports false.
	StartSend(src []byte)
	// TxActive reports whether a send is in progress.
	TxActive() bool
}

func (c *Callbacks) txEnd1() {
	if fn := c.TxEnd1; fn != nil {
		fn()
	}
}

func (c *Callbacks) txEnd2() {
	if fn := c.TxEnd2; fn != nil {
		fn()
	}
}

func (c *Callbacks) rxEnd() {
	if fn := c.RxEnd; fn != nil {
		fn()
	}
}

func (c *Callbacks) rxChar(b byte) {
	if fn := c.RxChar; fn != nil {
		fn(uint16(b))
	}
}

func (c *Callbacks) rxErr(f Flags) {
	if fn := c.RxErr; fn != nil {
		fn(f)
	}
}
