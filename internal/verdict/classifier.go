package verdict

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/hireloop/refcheck/internal/logger"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Scorer applies the verdict policy for terminal call events. The policy is
// fail-closed end to end: missing input, missing configuration, a failed
// classifier call, and unparseable output all resolve without error, biased
// toward requiring human review over silently approving a candidate.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewScorer builds a Scorer. A nil generator is valid and means no
// classifier credentials are configured: every terminal event then resolves
// to a fail-closed verdict with the missing-credentials source.
func NewScorer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Classify resolves a verdict for the given call content.
func (s *Scorer) Classify(ctx context.Context, input Input) Result {
	summary := strings.TrimSpace(input.Summary)
	transcript := strings.TrimSpace(input.Transcript)

	if summary == "" && transcript == "" {
		return Result{Verdict: Unknown, Source: SourceMissingInput}
	}

	if s.generator == nil {
		return Result{Verdict: Fail, Source: SourceMissingCredentials}
	}

	prompt := buildPrompt(input, summary, transcript)

	s.logger.Debug("classifier request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Truncate(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn("classifier call failed, failing closed", zap.Error(err))
		return Result{Verdict: Fail, Source: SourceClassifierError, Raw: err.Error()}
	}

	s.logger.Debug("classifier response",
		zap.String("response_preview", logger.Truncate(raw, s.maxLogLen)),
	)

	if verdict, ok := parseToken(raw); ok {
		return Result{Verdict: verdict, Source: SourceClassifier, Raw: raw}
	}

	s.logger.Debug("classifier output unparseable, using keyword heuristic",
		zap.String("response_preview", logger.Truncate(raw, s.maxLogLen)),
	)

	return Result{Verdict: Heuristic(summary), Source: SourceHeuristic, Raw: raw}
}

// parseToken extracts a verdict from free-form classifier output. The
// decoding contract requests a single token, but the parse tolerates any
// text: "fail" anywhere wins over "pass" so a hedged answer stays closed.
func parseToken(raw string) (Verdict, bool) {
	text := strings.ToLower(raw)

	if strings.Contains(text, "fail") {
		return Fail, true
	}
	if strings.Contains(text, "pass") {
		return Pass, true
	}
	return Unknown, false
}

func buildPrompt(input Input, summary, transcript string) string {
	candidate := strings.TrimSpace(input.CandidateName)
	if candidate == "" {
		candidate = "the candidate"
	}
	company := strings.TrimSpace(input.CompanyName)
	if company == "" {
		company = "the hiring company"
	}
	if summary == "" {
		summary = "(none)"
	}
	if transcript == "" {
		transcript = "(none)"
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{CANDIDATE_NAME}}", candidate)
	prompt = strings.ReplaceAll(prompt, "{{COMPANY_NAME}}", company)
	prompt = strings.ReplaceAll(prompt, "{{SUMMARY}}", summary)
	prompt = strings.ReplaceAll(prompt, "{{TRANSCRIPT}}", transcript)
	return prompt
}
