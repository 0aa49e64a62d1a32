package uart

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Port is the subset of serial.Port used by SerialDriver.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens a serial port.
type Opener func(path string, mode *serial.Mode) (Port, error)

// OpenSerial opens a real serial port using go.bug.st/serial.
func OpenSerial(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// SerialDriver implements Driver over a serial device.
// A reader goroutine plays the role of the receive DMA and a writer
// goroutine the role of the transmit DMA.
type SerialDriver struct {
	Path   string
	Opener Opener

	lock    sync.Mutex
	port    Port
	cb      Callbacks
	rxDst   []byte
	rxPos   int
	txCh    chan []byte
	done    chan struct{}
	running sync.WaitGroup

	txActive atomic.Bool
}

// NewSerialDriver creates a SerialDriver for the device at path.
func NewSerialDriver(path string) *SerialDriver {
	return &SerialDriver{Path: path, Opener: OpenSerial}
}

// Mode converts a baud rate into the 8N1 mode used on the link.
func Mode(baudRate int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Start implements Driver.
func (d *SerialDriver) Start(conf Config) error {
	if err := d.Stop(); err != nil {
		return err
	}
	if conf.BaudRate <= 0 {
		conf.BaudRate = DefaultBaudRate
	}
	opener := d.Opener
	if opener == nil {
		opener = OpenSerial
	}
	port, err := opener(d.Path, Mode(conf.BaudRate))
	if err != nil {
		return fmt.Errorf("open %s: %w", d.Path, err)
	}

	d.lock.Lock()
	d.port, d.cb = port, conf.Callbacks
	d.rxDst, d.rxPos = nil, 0
	d.txCh = make(chan []byte, 1)
	d.done = make(chan struct{})
	d.running.Add(2)
	go d.readLoop(port, d.done)
	go d.writeLoop(port, d.txCh, d.done)
	d.lock.Unlock()
	glog.Infof("uart %s started at %d baud", d.Path, conf.BaudRate)
	return nil
}

// Stop implements Driver.
func (d *SerialDriver) Stop() error {
	d.lock.Lock()
	port := d.port
	if port == nil {
		d.lock.Unlock()
		return nil
	}
	close(d.done)
	err := port.Close()
	d.port, d.txCh, d.rxDst = nil, nil, nil
	d.lock.Unlock()

	d.running.Wait()
	d.txActive.Store(false)
	glog.Infof("uart %s stopped", d.Path)
	return err
}

// StartReceive implements Driver.
func (d *SerialDriver) StartReceive(dst []byte) {
	d.lock.Lock()
	if d.port != nil {
		d.rxDst, d.rxPos = dst, 0
	}
	d.lock.Unlock()
}

// StartSend implements Driver.
func (d *SerialDriver) StartSend(src []byte) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.port == nil {
		return
	}
	d.txActive.Store(true)
	select {
	case d.txCh <- src:
	default:
		// A send is already queued, the caller ignored TxActive.
		glog.Warningf("uart %s: send dropped, transmitter busy", d.Path)
	}
}

// TxActive implements Driver.
func (d *SerialDriver) TxActive() bool {
	return d.txActive.Load()
}

func (d *SerialDriver) readLoop(port Port, done <-chan struct{}) {
	defer d.running.Done()
	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		select {
		case <-done:
			return
		default:
		}
		for _, b := range buf[:n] {
			d.receive(b)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				glog.Warningf("uart %s: read error: %v", d.Path, err)
			}
			d.lock.Lock()
			cb := d.cb
			d.lock.Unlock()
			cb.rxErr(FlagIO)
			return
		}
	}
}

func (d *SerialDriver) receive(b byte) {
	d.lock.Lock()
	cb := d.cb
	if d.rxDst == nil {
		d.lock.Unlock()
		cb.rxChar(b)
		return
	}
	d.rxDst[d.rxPos] = b
	d.rxPos++
	full := d.rxPos >= len(d.rxDst)
	if full {
		d.rxDst, d.rxPos = nil, 0
	}
	d.lock.Unlock()
	if full {
		cb.rxEnd()
	}
}

func (d *SerialDriver) writeLoop(port Port, txCh <-chan []byte, done <-chan struct{}) {
	defer d.running.Done()
	for {
		select {
		case <-done:
			return
		case src := <-txCh:
			for len(src) > 0 {
				n, err := port.Write(src)
				if err != nil {
					glog.Warningf("uart %s: write error: %v", d.Path, err)
					break
				}
				src = src[n:]
			}
			d.lock.Lock()
			cb := d.cb
			d.lock.Unlock()
			cb.txEnd1()
			d.txActive.Store(false)
			cb.txEnd2()
		}
	}
}
