package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/uartcomm/pkg/framework"
	"github.com/robotalks/uartcomm/pkg/mavlink"
)

// Topics relative to the device.
const (
	TopicMeta      = "meta"
	TopicESCStatus = "esc_status"
	TopicPacket    = "packet"
)

// ReplyQueueLen is the number of replies buffered for publishing.
const ReplyQueueLen = 16

// PacketSender sends a payload framed for the packet layer.
type PacketSender interface {
	SendPacket(payload []byte) error
}

// Meta is published retained on connect and describes the device.
type Meta struct {
	Device    string `json:"device"`
	Serial    string `json:"serial"`
	CAN       string `json:"can"`
	BaudRate  int    `json:"baud_rate"`
	SystemID  byte   `json:"system_id"`
	Component byte   `json:"component_id"`
}

// StatusReport is the JSON form of a reply.
type StatusReport struct {
	Time time.Time `json:"time"`
	RPM  [4]int32  `json:"rpm"`
}

// Mirror publishes replies and forwards packets received on the broker
// to the link.
type Mirror struct {
	Queue  *Queue
	Meta   Meta
	Sender PacketSender
	Clock  framework.TimeSource

	replies chan StatusReport
}

// NewMirror creates a Mirror connecting to brokerURL.
func NewMirror(brokerURL string, meta Meta, sender PacketSender) (*Mirror, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	// The meta topic is cleared if the connection drops.
	opts.SetBinaryWill(topicPrefix+meta.Device+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("uartcomm:" + meta.Device)
	}
	return newMirror(NewQueue(opts, topicPrefix), meta, sender), nil
}

func newMirror(q *Queue, meta Meta, sender PacketSender) *Mirror {
	m := &Mirror{
		Queue:   q,
		Meta:    meta,
		Sender:  sender,
		Clock:   framework.SystemClock,
		replies: make(chan StatusReport, ReplyQueueLen),
	}
	q.OnConnect = func(*Queue) { m.publishMeta() }
	return m
}

// Name implements framework.Named.
func (m *Mirror) Name() string {
	return "mqtt"
}

// OnReply queues a reply for publishing. It never blocks, a reply is
// dropped when the queue is full.
func (m *Mirror) OnReply(reply mavlink.ESCStatus) {
	select {
	case m.replies <- StatusReport{Time: m.Clock.Time(), RPM: reply.RPM}:
	default:
		glog.V(3).Info("mqtt: reply dropped")
	}
}

// Run implements framework.Runnable.
func (m *Mirror) Run(ctx context.Context) error {
	sub := m.Queue.Sub(m.topic(TopicPacket), m.handlePacket)
	m.Queue.Connect()
	defer m.Queue.Close()
	for {
		select {
		case <-ctx.Done():
			sub.Close()
			m.Queue.PubWith(m.topic(TopicMeta), nil, 1, true).WaitTimeout(time.Second)
			return nil
		case report := <-m.replies:
			payload, err := json.Marshal(&report)
			if err != nil {
				glog.Errorf("mqtt: encode report: %v", err)
				continue
			}
			m.Queue.Pub(m.topic(TopicESCStatus), payload)
		}
	}
}

func (m *Mirror) topic(name string) string {
	return m.Meta.Device + "/" + name
}

func (m *Mirror) handlePacket(topic string, payload []byte) {
	if len(payload) == 0 {
		return
	}
	if err := m.Sender.SendPacket(payload); err != nil {
		glog.Warningf("mqtt: %s: %v", topic, err)
	}
}

func (m *Mirror) publishMeta() {
	meta, err := json.Marshal(&m.Meta)
	if err != nil {
		glog.Errorf("mqtt: encode meta: %v", err)
		return
	}
	m.Queue.PubWith(m.topic(TopicMeta), meta, 1, true)
}
