// Package httptransport implements the HTTP transport layer
// of the compile gateway.
package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/iliamunaev/compile-gateway/internal/gateway"
)

// Route paths.
const (
	CompilePath = "/api/compile"
	HealthPath  = "/health"
)

type compiler interface {
	Handle(ctx context.Context, body []byte) gateway.Result
}

type callCounter interface {
	Running() int64
	Total() uint64
}

// Handler serves compile and health requests.
type Handler struct {
	compiler compiler
	calls    callCounter
	logger   *slog.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	UpstreamInflight int64  `json:"upstream_inflight"`
	UpstreamTotal    uint64 `json:"upstream_total"`
}

// New returns a Handler for compiler.
//
// It panics if compiler is nil. calls may be nil, in which case
// health reports zero upstream calls.
func New(compiler compiler, calls callCounter, logger *slog.Logger) *Handler {
	if compiler == nil {
		panic("httptransport.New: nil compiler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{compiler: compiler, calls: calls, logger: logger}
}

// Register adds the handler routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(CompilePath, h.HandleCompile)
	mux.HandleFunc(HealthPath, h.HandleHealth)
}

// HandleCompile forwards the request body to the gateway.
//
// Only POST is accepted. The body is passed through undecoded; the gateway
// tolerates anything. The response is always a compile outcome.
func (h *Handler) HandleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Debug("read compile request", "error", err)
		body = nil
	}

	res := h.compiler.Handle(r.Context(), body)
	writeRaw(w, res.Status, res.Body)
}

// HandleHealth reports liveness and upstream call counts.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{Status: "ok"}
	if h.calls != nil {
		resp.UpstreamInflight = h.calls.Running()
		resp.UpstreamTotal = h.calls.Total()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes v as a JSON response with the given status code.
// The Content-Type is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes an already-encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
