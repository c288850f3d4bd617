// Package audit carries compliance-relevant events (access decisions and
// document status changes) to an external sink.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
)

type EventType string

const (
	EventAccessGranted         EventType = "access_granted"
	EventAccessDenied          EventType = "access_denied"
	EventDocumentUploaded      EventType = "document_uploaded"
	EventDocumentStatusChanged EventType = "document_status_changed"
	EventDocumentExpired       EventType = "document_expired"
	EventCompanyStatusChanged  EventType = "company_status_changed"
)

// Event is transport agnostic; publishers decide the wire format.
type Event struct {
	Type       EventType       `json:"type"`
	TenantID   kernel.TenantID `json:"tenant_id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Subject    string          `json:"subject"`
	Payload    map[string]any  `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Key partitions events of the same tenant and subject together
func (e Event) Key() string {
	return e.TenantID.String() + ":" + e.Subject
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the application log. Used when no broker
// is configured.
type LogPublisher struct {
	log *logx.Logger
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{log: logx.With("component", "audit")}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	p.log.With("tenant_id", event.TenantID.String(), "subject", event.Subject).
		Infof("audit event %s %v", event.Type, event.Payload)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps events in memory. Useful in tests.
type Recorder struct {
	events chan Event
}

func NewRecorder(buffer int) *Recorder {
	return &Recorder{events: make(chan Event, buffer)}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	select {
	case r.events <- event:
	default:
	}
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events drains everything recorded so far
func (r *Recorder) Events() []Event {
	var out []Event
	for {
		select {
		case e := <-r.events:
			out = append(out, e)
		default:
			return out
		}
	}
}
