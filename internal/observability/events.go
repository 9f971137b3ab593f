package observability

// EventEnvelope wraps a feed event for the broker. EventType names the
// stream (e.g. "ws_events"), EventName the specific occurrence.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders assembles AMQP message headers from request correlation
// ids, skipping empties.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := make(map[string]string, 2)
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
