package payload

// EventTypeEndOfCallReport is the terminal event type: the call has fully
// ended and the payload carries the final summary and transcript.
const EventTypeEndOfCallReport = "end-of-call-report"

// EventTypeUnknown is assigned when no candidate path yields an event type.
const EventTypeUnknown = "unknown"

// CallEvent is the canonical projection of an inbound provider payload.
// All fields except EventType may be empty when the payload does not carry
// them; CallID is the join key for every downstream record, and its absence
// limits processing to the raw event log.
type CallEvent struct {
	CallID          string
	EventType       string
	Summary         string
	Transcript      string
	RecordingURL    string
	EndedReason     string
	StartedAt       string
	EndedAt         string
	DurationSeconds float64
	Variables       map[string]any
}

// Terminal reports whether the event signals the end of a call.
func (e *CallEvent) Terminal() bool {
	return e.EventType == EventTypeEndOfCallReport
}

// HasCallID reports whether the event can be joined to call and candidate
// records.
func (e *CallEvent) HasCallID() bool {
	return e.CallID != ""
}
