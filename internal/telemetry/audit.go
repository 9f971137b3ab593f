package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher delivers audit events to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter emits audit events for mutations and badge awards. A nil
// emitter is safe to call and does nothing.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	EntityID      *int         `json:"entity_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes an audit event. Publish failures are logged only; audit
// problems never surface to the request path.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, entityID *int) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		EntityID:      entityID,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
