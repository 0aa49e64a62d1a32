package uartcomm

import (
	"github.com/golang/glog"

	"github.com/robotalks/uartcomm/pkg/mavlink"
)

func (b *Bridge) work() {
	defer close(b.exited)
	glog.V(2).Info("uartcomm: worker started")
	for {
		select {
		case <-b.ctx.Done():
			glog.V(2).Info("uartcomm: worker stopped")
			return
		case <-b.signal:
		}
		b.scan(b.rx.Completed())
	}
}

// scan feeds one completed half to the parser.
func (b *Bridge) scan(half []byte) {
	for _, c := range half {
		if msg := b.parser.Parse(c); msg != nil {
			b.messages.Add(1)
			b.dispatch(msg)
		}
	}
	b.dropped.Store(b.parser.Status.Dropped)
	b.halves.Add(1)
}

func (b *Bridge) dispatch(msg *mavlink.Message) {
	cmd, ok := mavlink.DecodeServoOutputRaw(msg)
	if !ok {
		glog.V(4).Infof("uartcomm: ignored %s", msg.Name())
		return
	}
	b.forward(cmd)
	reply := b.aggregate()
	frame, err := b.encoder.PackESCStatus(reply)
	if err != nil {
		glog.Errorf("uartcomm: pack reply: %v", err)
		return
	}
	if err := b.guard.send(frame); err != nil {
		glog.Errorf("uartcomm: send reply: %v", err)
		return
	}
	b.replies.Add(1)
	if fn := b.OnReply; fn != nil {
		fn(reply)
	}
}

// forward sets controllers 1 to Channels to the raw servo outputs.
func (b *Bridge) forward(cmd mavlink.ServoOutputRaw) {
	for i := 0; i < Channels; i++ {
		if err := b.motors.SetRPM(uint8(i+1), int32(cmd.Servo[i])); err != nil {
			glog.Warningf("uartcomm: set rpm %d: %v", i+1, err)
		}
	}
}

// aggregate builds a reply from the statuses younger than MaxStatusAge.
func (b *Bridge) aggregate() (m mavlink.ESCStatus) {
	now := b.clock.Time()
	for i := 0; i < b.status.Len() && i < len(m.RPM); i++ {
		s := b.status.Slot(i)
		if s.ID >= 0 && s.Age(now) < MaxStatusAge {
			m.RPM[i] = s.RPM
		}
	}
	return
}
