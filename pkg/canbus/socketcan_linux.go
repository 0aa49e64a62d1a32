package canbus

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

type socketCAN struct {
	name string
	file *os.File
}

// OpenSocketCAN opens a raw CAN socket bound to the named interface.
func OpenSocketCAN(ifname string) (Bus, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("canbus: %s: %w", ifname, err)
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("canbus: socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbus: bind %s: %w", ifname, err)
	}
	// Non-blocking mode lets the runtime poller unblock Receive on Close.
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("canbus: %w", err)
	}
	return &socketCAN{name: ifname, file: os.NewFile(uintptr(fd), ifname)}, nil
}

func (s *socketCAN) Send(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	_, err := s.file.Write(marshalRaw(f))
	return s.mapErr(err)
}

func (s *socketCAN) Receive() (Frame, error) {
	buf := make([]byte, rawFrameLen)
	for {
		n, err := s.file.Read(buf)
		if err != nil {
			return Frame{}, s.mapErr(err)
		}
		if f, ok := unmarshalRaw(buf[:n]); ok {
			return f, nil
		}
	}
}

func (s *socketCAN) Close() error {
	return s.file.Close()
}

func (s *socketCAN) mapErr(err error) error {
	if errors.Is(err, os.ErrClosed) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("canbus: %s: %w", s.name, err)
	}
	return nil
}
