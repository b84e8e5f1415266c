// Package events publishes operation events to a NATS bus so fleet
// tooling can observe clock changes. Publishing is strictly
// best-effort: a missing or unreachable bus never fails a run.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ravello-tools/ravello-rtc/internal/ravello"
)

// Subject carries every event this tool emits.
const Subject = "ravello.operations"

// RTCUpdated describes one completed clock update.
type RTCUpdated struct {
	Event       string          `json:"event"`
	RunID       string          `json:"run_id"`
	Application string          `json:"application"`
	VM          string          `json:"vm,omitempty"` // empty when every VM was targeted
	Mode        ravello.RTCMode `json:"mode"`
	Seconds     int64           `json:"seconds"`
	Republished bool            `json:"republished"`
	Time        int64           `json:"time"`
}

// NewRTCUpdated fills in the event name and timestamp.
func NewRTCUpdated(runID string, app *ravello.Application, vm *ravello.VM, rtc ravello.RTC, republished bool) RTCUpdated {
	ev := RTCUpdated{
		Event:       "rtc.updated",
		RunID:       runID,
		Application: app.Name,
		Mode:        rtc.Mode,
		Seconds:     rtc.Seconds,
		Republished: republished,
		Time:        time.Now().Unix(),
	}
	if vm != nil {
		ev.VM = vm.Name
	}
	return ev
}

// Publisher wraps a NATS connection for one-shot CLI use.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials the bus. The CLI runs once and exits, so there is no
// reconnect policy; a failed dial is reported and the caller moves on.
func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("ravello-set-rtc"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

// Publish sends one JSON-encoded event.
func (p *Publisher) Publish(subject string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.nc.Publish(subject, b)
}

// Close flushes pending publishes and closes the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}
