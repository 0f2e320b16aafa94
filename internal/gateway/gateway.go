// Package gateway forwards compile requests to the upstream compiler and
// normalizes every reply into a well-formed compile outcome.
//
// Handle never returns an error: upstream failures of any shape are turned
// into a failure outcome with a single synthetic diagnostic.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/iliamunaev/compile-gateway/internal/apperr"
	"github.com/iliamunaev/compile-gateway/internal/model"
	"github.com/iliamunaev/compile-gateway/internal/schema"
	"github.com/iliamunaev/compile-gateway/internal/service/tracker"
)

// EmptyOutputMessage is reported when the upstream sends an empty non-JSON reply.
const EmptyOutputMessage = "Upstream returned a non-JSON response"

// CompilePath is appended to the upstream base URL.
const CompilePath = "/compile"

// Config configures a Gateway.
type Config struct {
	// UpstreamBaseURL is the compiler service base URL.
	UpstreamBaseURL string

	// HTTPClient performs the upstream call. Defaults to a client without
	// a timeout; the caller's context bounds the call.
	HTTPClient *http.Client

	// Validator checks upstream JSON. Defaults to schema.MustNew().
	Validator *schema.Validator

	// Tracker counts upstream calls. Optional.
	Tracker *tracker.Tracker

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Gateway normalizes upstream compiler replies.
type Gateway struct {
	endpoint  string
	client    *http.Client
	validator *schema.Validator
	tr        *tracker.Tracker
	logger    *slog.Logger
}

// Result is a normalized gateway reply.
// Body always holds a JSON-encoded compile outcome.
type Result struct {
	Status int
	Body   json.RawMessage
}

// New returns a Gateway for cfg.
func New(cfg Config) *Gateway {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Validator == nil {
		cfg.Validator = schema.MustNew()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = &tracker.Tracker{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Gateway{
		endpoint:  strings.TrimRight(cfg.UpstreamBaseURL, "/") + CompilePath,
		client:    cfg.HTTPClient,
		validator: cfg.Validator,
		tr:        cfg.Tracker,
		logger:    cfg.Logger,
	}
}

// Endpoint returns the upstream compile URL.
func (g *Gateway) Endpoint() string { return g.endpoint }

// Tracker returns the tracker counting upstream calls.
func (g *Gateway) Tracker() *tracker.Tracker { return g.tr }

// Handle decodes a raw client request body and compiles it.
// A body that is not JSON, or lacks a string "code", compiles "".
func (g *Gateway) Handle(ctx context.Context, body []byte) Result {
	return g.Compile(ctx, DecodeCode(body))
}

// Compile forwards code to the upstream and normalizes the reply.
func (g *Gateway) Compile(ctx context.Context, code string) Result {
	res, err := g.forward(ctx, code)
	if err != nil {
		out := failureResult(err)
		g.logger.Warn("upstream compile failed",
			"endpoint", g.endpoint,
			"kind", apperr.Kind(err),
			"status", out.Status,
			"error", err,
		)
		return out
	}

	g.logger.Debug("upstream compile ok", "endpoint", g.endpoint, "status", res.Status)
	return res
}

func (g *Gateway) forward(ctx context.Context, code string) (Result, error) {
	done := g.tr.Start()
	defer done()

	payload, err := json.Marshal(model.CompileRequest{Code: code})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read reply: %w", apperr.ErrUpstream, err)
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		return Result{}, &apperr.RawOutputError{Status: resp.StatusCode, Body: string(data)}
	}
	if err := g.validator.Validate(data); err != nil {
		return Result{}, &apperr.RawOutputError{Status: resp.StatusCode, Body: string(data), Reason: err}
	}
	// The schema accepts 1.0 as an integer; clients decoding into int do not.
	var outcome model.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return Result{}, &apperr.RawOutputError{Status: resp.StatusCode, Body: string(data), Reason: err}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return Result{}, &apperr.RawOutputError{Status: resp.StatusCode, Body: string(data), Reason: err}
	}
	return Result{Status: resp.StatusCode, Body: buf.Bytes()}, nil
}

// failureResult builds the single-diagnostic failure for err.
func failureResult(err error) Result {
	message := err.Error()
	var raw *apperr.RawOutputError
	if errors.As(err, &raw) {
		message = raw.Body
		if message == "" {
			message = EmptyOutputMessage
		}
	}

	body, _ := json.Marshal(model.NewFailure(message, apperr.Kind(err)))
	return Result{Status: apperr.HTTPStatus(err), Body: body}
}

// DecodeCode extracts the "code" string from a request body.
func DecodeCode(body []byte) string {
	var req struct {
		Code any `json:"code"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	code, _ := req.Code.(string)
	return code
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
