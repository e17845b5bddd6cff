// Package ingest runs the call-completion pipeline: normalize the inbound
// payload, resolve a verdict for terminal events, and reconcile the result
// into the event log, the call record and the candidate record.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/refcheck/internal/candidate"
	"github.com/hireloop/refcheck/internal/payload"
	"github.com/hireloop/refcheck/internal/store"
	"github.com/hireloop/refcheck/internal/verdict"
)

// Recorder is the slice of the store the pipeline writes through.
type Recorder interface {
	AppendEvent(ctx context.Context, callID, eventType string, payload json.RawMessage, receivedAt time.Time) (string, error)
	UpsertCall(ctx context.Context, record *store.CallRecord, ts time.Time) error
	ApplyTransition(ctx context.Context, explicitID, callID string, tr candidate.Transition, ts time.Time) (bool, error)
}

// Outcome reports what a processed event did, mostly for logging and tests.
type Outcome struct {
	Event            *payload.CallEvent
	Result           *verdict.Result
	EventStored      bool
	CallStored       bool
	CandidateMatched bool
}

// Processor wires the pipeline stages together. Stages run strictly in
// sequence; a failing persistence stage is logged and the remaining stages
// are still attempted, because losing derived state is acceptable and losing
// the raw event is not.
type Processor struct {
	recorder   Recorder
	classifier verdict.Classifier
	logger     *zap.Logger
	now        func() time.Time
}

func New(recorder Recorder, classifier verdict.Classifier, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		recorder:   recorder,
		classifier: classifier,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Process handles one inbound webhook body. A body that is not valid JSON
// degrades to an empty object: the audit entry is still recorded and the
// rest of the pipeline sees an unknown event. Process never returns an
// error; every internal failure is absorbed so the transport can always
// acknowledge receipt.
func (p *Processor) Process(ctx context.Context, raw []byte) Outcome {
	body := map[string]any{}
	stored := json.RawMessage(raw)
	if err := json.Unmarshal(raw, &body); err != nil {
		p.logger.Warn("unparseable webhook body, degrading to empty object", zap.Error(err))
		body = map[string]any{}
		stored = json.RawMessage(`{}`)
	}

	event := payload.Normalize(body)
	outcome := Outcome{Event: event}
	now := p.now()

	log := p.logger.With(
		zap.String("call_id", event.CallID),
		zap.String("event_type", event.EventType),
	)

	vars := payload.DecodeVariables(event.Variables)

	var result *verdict.Result
	if event.Terminal() {
		resolved := p.classifier.Classify(ctx, verdict.Input{
			Summary:       event.Summary,
			Transcript:    event.Transcript,
			CandidateName: vars.CandidateName,
			CompanyName:   vars.CompanyName,
		})
		result = &resolved
		outcome.Result = result

		log.Info("verdict resolved",
			zap.String("verdict", string(resolved.Verdict)),
			zap.String("source", string(resolved.Source)),
		)
	}

	// The audit entry is written for every event, terminal or not, before
	// any derived state.
	if _, err := p.recorder.AppendEvent(ctx, event.CallID, event.EventType, stored, now); err != nil {
		log.Error("appending raw event failed", zap.Error(err))
	} else {
		outcome.EventStored = true
	}

	if !event.Terminal() || !event.HasCallID() {
		if event.Terminal() {
			log.Warn("terminal event without call id, stored to event log only")
		}
		return outcome
	}

	record := &store.CallRecord{
		CallID:          event.CallID,
		EventType:       event.EventType,
		Summary:         event.Summary,
		Transcript:      event.Transcript,
		RecordingURL:    event.RecordingURL,
		EndedReason:     event.EndedReason,
		StartedAt:       event.StartedAt,
		EndedAt:         event.EndedAt,
		DurationSeconds: event.DurationSeconds,
		Verdict:         result.Verdict,
		VerdictSource:   result.Source,
		VerdictRaw:      result.Raw,
	}
	if err := p.recorder.UpsertCall(ctx, record, now); err != nil {
		log.Error("reconciling call record failed", zap.Error(err))
	} else {
		outcome.CallStored = true
	}

	explicitID := ""
	if vars.WellFormedCandidateID() {
		explicitID = vars.CandidateID
	} else if vars.CandidateID != "" {
		log.Warn("malformed candidate id in call variables, using call association",
			zap.String("candidate_id", vars.CandidateID))
	}

	tr := candidate.FromVerdict(*result, candidate.ReferenceCall{
		CallID:       event.CallID,
		Verdict:      result.Verdict,
		Source:       result.Source,
		Summary:      event.Summary,
		RecordingURL: event.RecordingURL,
		EndedReason:  event.EndedReason,
	})

	matched, err := p.recorder.ApplyTransition(ctx, explicitID, event.CallID, tr, now)
	switch {
	case err != nil:
		log.Error("candidate transition failed", zap.Error(err))
	case !matched:
		// The reconciliation-failure signal: the event and call record are
		// durable, only the candidate link is missing.
		log.Warn("no candidate resolved for terminal call, transition dropped",
			zap.String("explicit_candidate_id", explicitID))
	default:
		outcome.CandidateMatched = true
		log.Info("candidate updated", zap.String("status", tr.Status))
	}

	return outcome
}
