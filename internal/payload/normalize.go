package payload

// Candidate path lists per canonical field. The provider has shipped several
// webhook shapes over time: the current one nests everything under "message",
// older ones carried the call object or flat fields at the top level. Earlier
// entries win, so each list is ordered newest shape first.
var (
	callIDPaths = []string{
		"message.call.id",
		"message.callId",
		"call.id",
		"callId",
	}
	eventTypePaths = []string{
		"message.type",
		"type",
		"event",
	}
	summaryPaths = []string{
		"message.analysis.summary",
		"message.summary",
		"analysis.summary",
		"summary",
	}
	transcriptPaths = []string{
		"message.artifact.transcript",
		"message.transcript",
		"artifact.transcript",
		"transcript",
	}
	recordingURLPaths = []string{
		"message.artifact.recordingUrl",
		"message.recordingUrl",
		"artifact.recordingUrl",
		"recordingUrl",
	}
	endedReasonPaths = []string{
		"message.endedReason",
		"endedReason",
	}
	startedAtPaths = []string{
		"message.startedAt",
		"message.call.startedAt",
		"startedAt",
	}
	endedAtPaths = []string{
		"message.endedAt",
		"message.call.endedAt",
		"endedAt",
	}
	durationPaths = []string{
		"message.durationSeconds",
		"durationSeconds",
	}
	variablesPaths = []string{
		"message.call.assistantOverrides.variableValues",
		"message.assistant.variableValues",
		"call.assistantOverrides.variableValues",
		"assistantOverrides.variableValues",
		"variableValues",
	}
)

// Normalize projects an arbitrarily shaped provider payload onto a CallEvent.
// It is a pure best-effort extraction: it never fails, and a payload that
// matches no known shape yields an event with only the "unknown" type set.
func Normalize(body map[string]any) *CallEvent {
	event := &CallEvent{
		CallID:       FirstString(body, callIDPaths),
		EventType:    FirstString(body, eventTypePaths),
		Summary:      FirstString(body, summaryPaths),
		Transcript:   FirstString(body, transcriptPaths),
		RecordingURL: FirstString(body, recordingURLPaths),
		EndedReason:  FirstString(body, endedReasonPaths),
		StartedAt:    FirstString(body, startedAtPaths),
		EndedAt:      FirstString(body, endedAtPaths),
		Variables:    FirstMap(body, variablesPaths),
	}

	if event.EventType == "" {
		event.EventType = EventTypeUnknown
	}

	if seconds, ok := FirstNumber(body, durationPaths); ok {
		event.DurationSeconds = seconds
	}

	return event
}
