// Package webhook exposes the HTTP ingress for provider call events.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hireloop/refcheck/internal/ingest"
)

// SecretHeader carries the shared secret configured on the provider side.
const SecretHeader = "X-Webhook-Secret"

// maxBodyBytes bounds the accepted webhook body. Provider payloads with a
// full transcript stay well under this.
const maxBodyBytes = 4 << 20

type processor interface {
	Process(ctx context.Context, raw []byte) ingest.Outcome
}

type pinger interface {
	Health(ctx context.Context) error
}

// Handler terminates the webhook route: shared-secret check, tolerant body
// read, then hands off to the pipeline. Past authentication, the response is
// always a success; pipeline failures are absorbed so the provider never
// retries an event we already recorded.
type Handler struct {
	secret    string
	processor processor
	store     pinger
	logger    *zap.Logger
}

func NewHandler(secret string, proc processor, store pinger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{secret: secret, processor: proc, store: store, logger: log}
}

// Register installs the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/webhooks/call", h.handleCallEvent)
	mux.HandleFunc("/healthz", h.handleHealth)
}

func (h *Handler) handleCallEvent(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(req) {
		h.logger.Warn("webhook rejected", zap.String("reason", "shared secret mismatch"))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		// An aborted read still produces an audit entry downstream.
		h.logger.Warn("reading webhook body failed", zap.Error(err))
		body = nil
	}

	h.processor.Process(req.Context(), body)

	respondJSON(w, map[string]any{"received": true})
}

// authorized compares the shared-secret header in constant time. An empty
// configured secret disables the check.
func (h *Handler) authorized(req *http.Request) bool {
	if h.secret == "" {
		return true
	}
	provided := req.Header.Get(SecretHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}

func (h *Handler) handleHealth(w http.ResponseWriter, req *http.Request) {
	if err := h.store.Health(req.Context()); err != nil {
		http.Error(w, "store unreachable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, map[string]any{"ok": true})
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
