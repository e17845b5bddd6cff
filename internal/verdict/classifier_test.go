package verdict

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestClassifyMissingInputFailsClosed(t *testing.T) {
	stub := &stubGenerator{response: "pass"}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	result := scorer.Classify(context.Background(), Input{Summary: "   ", Transcript: ""})

	if result.Verdict != Unknown {
		t.Fatalf("unexpected verdict: %s", result.Verdict)
	}
	if result.Source != SourceMissingInput {
		t.Fatalf("unexpected source: %s", result.Source)
	}
	if stub.calls != 0 {
		t.Fatal("classifier must not be called without input text")
	}
}

func TestClassifyMissingCredentialsFailsClosed(t *testing.T) {
	scorer := NewScorer(nil, zap.NewNop(), 0)

	// Positive text must not matter: with no classifier configured a human
	// has to review the call.
	result := scorer.Classify(context.Background(), Input{Summary: "Great, strong recommend"})

	if result.Verdict != Fail {
		t.Fatalf("unexpected verdict: %s", result.Verdict)
	}
	if result.Source != SourceMissingCredentials {
		t.Fatalf("unexpected source: %s", result.Source)
	}
}

func TestClassifyParsesClassifierToken(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     Verdict
	}{
		{name: "plain pass", response: "pass", want: Pass},
		{name: "punctuated fail", response: "Fail.", want: Fail},
		{name: "hedged answer stays closed", response: "pass, but could also fail", want: Fail},
		{name: "uppercase", response: "PASS", want: Pass},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubGenerator{response: tc.response}
			scorer := NewScorer(stub, zap.NewNop(), 0)

			result := scorer.Classify(context.Background(), Input{Summary: "some reference"})

			if result.Verdict != tc.want {
				t.Fatalf("verdict = %s, want %s", result.Verdict, tc.want)
			}
			if result.Source != SourceClassifier {
				t.Fatalf("unexpected source: %s", result.Source)
			}
			if result.Raw != tc.response {
				t.Fatalf("raw output not preserved: %q", result.Raw)
			}
		})
	}
}

func TestClassifyUnparseableOutputFallsThroughToHeuristic(t *testing.T) {
	stub := &stubGenerator{response: "   \n"}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	result := scorer.Classify(context.Background(), Input{Summary: "An excellent and reliable engineer, strong recommend"})

	if result.Source != SourceHeuristic {
		t.Fatalf("unexpected source: %s", result.Source)
	}
	if result.Verdict != Pass {
		t.Fatalf("unexpected verdict: %s", result.Verdict)
	}
}

func TestClassifyTransportErrorFailsClosed(t *testing.T) {
	stub := &stubGenerator{err: errors.New("dial tcp: connection refused")}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	result := scorer.Classify(context.Background(), Input{Summary: "glowing reference"})

	if result.Verdict != Fail {
		t.Fatalf("unexpected verdict: %s", result.Verdict)
	}
	if result.Source != SourceClassifierError {
		t.Fatalf("unexpected source: %s", result.Source)
	}
	if !strings.Contains(result.Raw, "connection refused") {
		t.Fatalf("expected error preserved in raw, got %q", result.Raw)
	}
}

func TestClassifyPromptCarriesCallContent(t *testing.T) {
	stub := &stubGenerator{response: "pass"}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	scorer.Classify(context.Background(), Input{
		Summary:       "summary text",
		Transcript:    "transcript text",
		CandidateName: "Jordan Reyes",
		CompanyName:   "Acme",
	})

	for _, fragment := range []string{"summary text", "transcript text", "Jordan Reyes", "Acme"} {
		if !strings.Contains(stub.lastPrompt, fragment) {
			t.Fatalf("prompt missing %q", fragment)
		}
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt: %s", stub.lastPrompt)
	}
}
