package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	lastModel  string
	lastConfig *genai.GenerateContentConfig
	lastPrompt string
	resp       *genai.GenerateContentResponse
	err        error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	f.lastConfig = config
	for _, content := range contents {
		for _, part := range content.Parts {
			f.lastPrompt += part.Text
		}
	}
	return f.resp, f.err
}

func TestGenerateContentDeterministicDecoding(t *testing.T) {
	fake := &fakeModels{
		resp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: " pass \n"}}},
			}},
		},
	}
	g := &Generator{models: fake, modelName: "gemini-test"}

	output, err := g.GenerateContent(context.Background(), "decide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "pass" {
		t.Fatalf("unexpected output: %q", output)
	}
	if fake.lastModel != "gemini-test" {
		t.Fatalf("unexpected model: %q", fake.lastModel)
	}
	if fake.lastConfig == nil || fake.lastConfig.Temperature == nil || *fake.lastConfig.Temperature != 0 {
		t.Fatal("expected temperature pinned to 0")
	}
	if fake.lastConfig.MaxOutputTokens != maxOutputTokens {
		t.Fatalf("unexpected output token cap: %d", fake.lastConfig.MaxOutputTokens)
	}
	if len(fake.lastConfig.StopSequences) != 1 || fake.lastConfig.StopSequences[0] != "\n" {
		t.Fatalf("unexpected stop sequences: %v", fake.lastConfig.StopSequences)
	}
}

func TestGenerateContentPropagatesTransportError(t *testing.T) {
	fake := &fakeModels{err: errors.New("connection refused")}
	g := &Generator{models: fake, modelName: "gemini-test"}

	if _, err := g.GenerateContent(context.Background(), "decide"); err == nil {
		t.Fatal("expected transport error to propagate")
	}
}

func TestGenerateContentRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{models: &fakeModels{}, modelName: "gemini-test"}

	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
