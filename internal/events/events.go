// Package events publishes the lifecycle of a run (jobs dispatched, partial
// sums received, run finished) to in-process subscribers such as the
// websocket feed of the metrics server.
package events

import (
	"time"

	"github.com/agbru/picalc/internal/leibniz"
	"github.com/agbru/picalc/internal/orchestration"
)

// Type identifies an event.
type Type string

const (
	// TypeJobDispatched is emitted when a job is handed to a worker.
	TypeJobDispatched Type = "job_dispatched"
	// TypePartialReceived is emitted when a worker has summed its job.
	TypePartialReceived Type = "partial_received"
	// TypeRunFinished is emitted once per run, successful or not.
	TypeRunFinished Type = "run_finished"
)

// Event is a single run notification. It is encoded as JSON on the wire.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      Data      `json:"data"`
}

// Data carries the event-specific fields.
type Data struct {
	Worker      int     `json:"worker,omitempty"`
	Start       int64   `json:"start,omitempty"`
	Length      int64   `json:"length,omitempty"`
	TookSeconds float64 `json:"took_seconds,omitempty"`
	Pi          float64 `json:"pi,omitempty"`
	Seconds     float64 `json:"seconds,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Publisher turns run observations into events on a Bus. It implements
// orchestration.Instrumentation.
type Publisher struct {
	bus *Bus
	now func() time.Time
}

var _ orchestration.Instrumentation = (*Publisher)(nil)

// NewPublisher returns a publisher writing to bus.
func NewPublisher(bus *Bus) *Publisher {
	return &Publisher{bus: bus, now: time.Now}
}

func (p *Publisher) publish(t Type, d Data) {
	p.bus.Publish(Event{Type: t, Timestamp: p.now(), Data: d})
}

// JobDispatched publishes a TypeJobDispatched event.
func (p *Publisher) JobDispatched(job leibniz.Job) {
	p.publish(TypeJobDispatched, Data{Start: job.Start, Length: job.Length})
}

// PartialReceived publishes a TypePartialReceived event.
func (p *Publisher) PartialReceived(worker int, job leibniz.Job, took time.Duration) {
	p.publish(TypePartialReceived, Data{
		Worker:      worker,
		Start:       job.Start,
		Length:      job.Length,
		TookSeconds: took.Seconds(),
	})
}

// RunFinished publishes a TypeRunFinished event.
func (p *Publisher) RunFinished(result orchestration.RunResult) {
	d := Data{Seconds: result.Duration.Seconds()}
	if result.Err != nil {
		d.Error = result.Err.Error()
	} else {
		d.Pi = result.Pi
	}
	p.publish(TypeRunFinished, d)
}
