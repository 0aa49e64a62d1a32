package canbus

import "sync"

// LoopbackQueueLen is the number of frames buffered per direction.
const LoopbackQueueLen = 64

type loopback struct {
	rx     chan Frame
	peer   *loopback
	done   chan struct{}
	closer *sync.Once
}

// NewLoopback creates two connected in-memory endpoints. Frames sent on
// one are received by the other. Closing either closes both.
func NewLoopback() (Bus, Bus) {
	done, once := make(chan struct{}), &sync.Once{}
	a := &loopback{rx: make(chan Frame, LoopbackQueueLen), done: done, closer: once}
	b := &loopback{rx: make(chan Frame, LoopbackQueueLen), done: done, closer: once}
	a.peer, b.peer = b, a
	return a, b
}

func (l *loopback) Send(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	f.Data = append([]byte(nil), f.Data...)
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.peer.rx <- f:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

func (l *loopback) Receive() (Frame, error) {
	select {
	case f := <-l.rx:
		return f, nil
	case <-l.done:
		return Frame{}, ErrClosed
	}
}

func (l *loopback) Close() error {
	l.closer.Do(func() { close(l.done) })
	return nil
}
