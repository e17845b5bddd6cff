package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hireloop/refcheck/internal/ingest"
)

type fakeProcessor struct {
	calls  int
	bodies []string
}

func (f *fakeProcessor) Process(_ context.Context, raw []byte) ingest.Outcome {
	f.calls++
	f.bodies = append(f.bodies, string(raw))
	return ingest.Outcome{}
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Health(context.Context) error { return f.err }

func postEvent(h *Handler, secret, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/call", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleCallEventSuccess(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler("s3cret", proc, &fakePinger{}, zap.NewNop())

	rec := postEvent(h, "s3cret", `{"message":{"type":"end-of-call-report"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"received":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if proc.calls != 1 {
		t.Fatalf("expected one pipeline run, got %d", proc.calls)
	}
}

func TestHandleCallEventRejectsBadSecret(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler("s3cret", proc, &fakePinger{}, zap.NewNop())

	rec := postEvent(h, "wrong", `{}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	// Authentication failure must have no side effects.
	if proc.calls != 0 {
		t.Fatalf("pipeline must not run, got %d calls", proc.calls)
	}
}

func TestHandleCallEventRejectsMissingSecret(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler("s3cret", proc, &fakePinger{}, zap.NewNop())

	rec := postEvent(h, "", `{}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleCallEventNoSecretConfigured(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler("", proc, &fakePinger{}, zap.NewNop())

	rec := postEvent(h, "", `{}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if proc.calls != 1 {
		t.Fatalf("expected one pipeline run, got %d", proc.calls)
	}
}

func TestHandleCallEventMalformedBodyStillSucceeds(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler("", proc, &fakePinger{}, zap.NewNop())

	rec := postEvent(h, "", `{not json at all`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if proc.calls != 1 || proc.bodies[0] != `{not json at all` {
		t.Fatalf("raw body must reach the pipeline: %+v", proc.bodies)
	}
}

func TestHandleCallEventMethodNotAllowed(t *testing.T) {
	h := NewHandler("", &fakeProcessor{}, &fakePinger{}, zap.NewNop())
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/call", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := NewHandler("", &fakeProcessor{}, &fakePinger{}, zap.NewNop())
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	broken := NewHandler("", &fakeProcessor{}, &fakePinger{err: errors.New("down")}, zap.NewNop())
	mux = http.NewServeMux()
	broken.Register(mux)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
