// Package candidate computes the state transition a resolved reference-call
// verdict applies to a candidate record. The computation is pure; persistence
// applies it atomically.
package candidate

import (
	"fmt"

	"github.com/hireloop/refcheck/internal/verdict"
)

// Candidate statuses driven by the reference call outcome.
const (
	StatusRefCallPassed = "REF_CALL_PASSED"
	StatusRefCallFailed = "REF_CALL_FAILED"
	StatusRefCallEnded  = "REF_CALL_ENDED"
	StatusCallEnded     = "CALL_ENDED"
)

// StageDecision is the pipeline stage every candidate lands in once a
// reference call has completed, regardless of verdict.
const StageDecision = "decision"

// Task names marked complete by any terminal reference call. Receiving any
// reference content counts as a completed contact attempt, whether the
// outcome was positive or negative.
const (
	TaskReferralContacted = "referralContacted"
	TaskReferralResponses = "referralResponses"
)

// FlagFailedReferenceCheck is added to the candidate's risk flags on a
// failed reference call.
const FlagFailedReferenceCheck = "failed_reference_check"

// Risk score deltas per verdict.
const (
	riskDeltaPass    = -15
	riskDeltaFail    = 25
	riskDeltaUnknown = 5
)

// ReferenceCall is the sub-document stored on the candidate describing the
// completed call.
type ReferenceCall struct {
	CallID       string          `json:"callId"`
	Verdict      verdict.Verdict `json:"verdict"`
	Source       verdict.Source  `json:"source"`
	Summary      string          `json:"summary,omitempty"`
	RecordingURL string          `json:"recordingUrl,omitempty"`
	EndedReason  string          `json:"endedReason,omitempty"`
}

// Transition is the full effect a terminal call event has on a candidate,
// applied as one atomic update.
type Transition struct {
	Status        string
	Stage         string
	ReferenceCall ReferenceCall
	CompleteTasks []string
	RiskDelta     int
	AddFlags      []string
	Activity      string
}

// FromVerdict maps a resolved verdict onto the transition it triggers.
func FromVerdict(result verdict.Result, call ReferenceCall) Transition {
	tr := Transition{
		Stage:         StageDecision,
		ReferenceCall: call,
		CompleteTasks: []string{TaskReferralContacted, TaskReferralResponses},
	}

	switch result.Verdict {
	case verdict.Pass:
		tr.Status = StatusRefCallPassed
		tr.RiskDelta = riskDeltaPass
	case verdict.Fail:
		tr.Status = StatusRefCallFailed
		tr.RiskDelta = riskDeltaFail
		tr.AddFlags = []string{FlagFailedReferenceCheck}
	default:
		tr.Status = StatusRefCallEnded
		tr.RiskDelta = riskDeltaUnknown
	}

	tr.Activity = fmt.Sprintf("Reference call %s ended with verdict %s (source: %s)",
		call.CallID, result.Verdict, result.Source)

	return tr
}
