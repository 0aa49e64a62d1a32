package esc

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/uartcomm/pkg/canbus"
	"github.com/robotalks/uartcomm/pkg/framework"
)

// StatusSlots is the number of controllers tracked by a StatusTable.
const StatusSlots = 10

// Status is the last status received from one controller.
type Status struct {
	// ID is the controller id, -1 for an empty slot.
	ID      int
	RPM     int32
	Current float32
	Duty    float32
	RxTime  time.Time
}

// Age returns how long ago the status was received.
func (s Status) Age(now time.Time) time.Duration {
	return now.Sub(s.RxTime)
}

// StatusTable keeps the latest status per controller in a fixed number
// of slots. Slots are assigned in order of first appearance.
type StatusTable struct {
	Clock framework.TimeSource

	lock  sync.RWMutex
	slots [StatusSlots]Status
}

// NewStatusTable creates an empty table.
func NewStatusTable() *StatusTable {
	t := &StatusTable{Clock: framework.SystemClock}
	for i := range t.slots {
		t.slots[i].ID = -1
	}
	return t
}

// Len returns the number of slots.
func (t *StatusTable) Len() int {
	return len(t.slots)
}

// Slot returns a copy of slot i.
func (t *StatusTable) Slot(i int) Status {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.slots[i]
}

// Update records a frame if it is a status frame. It returns false for
// other frames and when the table is full.
func (t *StatusTable) Update(f canbus.Frame) bool {
	id, cmd := SplitFrameID(f.ID)
	if !f.Extended || cmd != CmdStatus || len(f.Data) < 8 {
		return false
	}
	st := Status{
		ID:      int(id),
		RPM:     int32(binary.BigEndian.Uint32(f.Data[0:])),
		Current: float32(int16(binary.BigEndian.Uint16(f.Data[4:]))) / 10,
		Duty:    float32(int16(binary.BigEndian.Uint16(f.Data[6:]))) / 1000,
		RxTime:  t.now(),
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	for i := range t.slots {
		if t.slots[i].ID == st.ID || t.slots[i].ID < 0 {
			t.slots[i] = st
			return true
		}
	}
	return false
}

// Run receives frames from bus until ctx is done or the bus is closed.
func (t *StatusTable) Run(ctx context.Context, bus canbus.Bus) error {
	errCh := make(chan error, 1)
	go func() {
		for {
			f, err := bus.Receive()
			if err != nil {
				errCh <- err
				return
			}
			if !t.Update(f) {
				glog.V(5).Infof("can: ignored %v", f)
			}
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, canbus.ErrClosed) {
			return nil
		}
		return err
	}
}

// Runner binds the table to a bus as a framework.Runnable.
func (t *StatusTable) Runner(bus canbus.Bus) framework.Runnable {
	return framework.NamedRun("can-status", framework.RunFunc(func(ctx context.Context) error {
		return t.Run(ctx, bus)
	}))
}

func (t *StatusTable) now() time.Time {
	if t.Clock == nil {
		return time.Now()
	}
	return t.Clock.Time()
}
