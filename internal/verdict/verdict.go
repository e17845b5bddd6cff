package verdict

import "context"

// Verdict is the outcome of scoring a reference call.
type Verdict string

const (
	Pass    Verdict = "PASS"
	Fail    Verdict = "FAIL"
	Unknown Verdict = "UNKNOWN"
)

// Source tags how a verdict was produced so the audit trail can distinguish
// a model answer from a fail-closed default.
type Source string

const (
	// SourceClassifier: the external classifier returned a parseable token.
	SourceClassifier Source = "classifier"
	// SourceHeuristic: the classifier output was unparseable and the local
	// keyword heuristic decided.
	SourceHeuristic Source = "fallback-heuristic"
	// SourceMissingInput: neither summary nor transcript carried text.
	SourceMissingInput Source = "missing-input"
	// SourceMissingCredentials: no classifier is configured.
	SourceMissingCredentials Source = "missing-credentials"
	// SourceClassifierError: the classifier call itself failed. Kept
	// distinct from missing credentials so operators can tell a retryable
	// outage from a configuration gap; both fail closed.
	SourceClassifierError Source = "classifier-error"
)

// Result is the resolved verdict for one terminal call event. A terminal
// event always resolves to a concrete Verdict; uncertainty is expressed
// through Unknown plus the Source tag, never through absence.
type Result struct {
	Verdict Verdict
	Source  Source
	// Raw preserves the classifier's unmodified output, or the transport
	// error text when the call failed, for audit.
	Raw string
}

// Input carries the call content handed to the classifier.
type Input struct {
	Summary       string
	Transcript    string
	CandidateName string
	CompanyName   string
}

// Classifier resolves a reference-call verdict. Implementations must never
// return an unresolved verdict: every policy branch ends in a concrete
// Result.
type Classifier interface {
	Classify(ctx context.Context, input Input) Result
}
