package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/iliamunaev/compile-gateway/internal/client"
	"github.com/iliamunaev/compile-gateway/internal/gateway"
	"github.com/iliamunaev/compile-gateway/internal/model"
	httptransport "github.com/iliamunaev/compile-gateway/internal/transport/http"
)

// stack is an upstream, a gateway server in front of it, and a session
// talking to the gateway over HTTP.
type stack struct {
	gw         *gateway.Gateway
	controller *Controller
	hits       *atomic.Int32
}

func newStack(t *testing.T, upstream http.HandlerFunc) stack {
	t.Helper()

	hits := &atomic.Int32{}
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(up.Close)

	return newStackWithUpstreamURL(t, up.URL, hits)
}

func newStackWithUpstreamURL(t *testing.T, upstreamURL string, hits *atomic.Int32) stack {
	t.Helper()

	gw := gateway.New(gateway.Config{UpstreamBaseURL: upstreamURL, Logger: discardLogger()})
	mux := http.NewServeMux()
	httptransport.New(gw, gw.Tracker(), discardLogger()).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(client.New(srv.URL, srv.Client()), "module hello::hello {}", discardLogger())
	return stack{gw: gw, controller: c, hits: hits}
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestScenarioA_EmptySuccess(t *testing.T) {
	t.Parallel()

	s := newStack(t, jsonReply(http.StatusOK, `{"success":true,"modules":[],"package_metadata_bcs":null,"compiler_stdout":""}`))

	if !s.controller.Submit(context.Background()) {
		t.Fatal("expected submit to run")
	}

	v := s.controller.View()
	if v.Kind != ViewSuccess {
		t.Fatalf("expected success view, got %v (%+v)", v.Kind, v)
	}
	if len(v.Success.Modules) != 0 {
		t.Fatalf("expected 0 modules, got %d", len(v.Success.Modules))
	}
	if v.Success.PackageMetadataBCS != nil {
		t.Fatalf("expected null metadata, got %v", *v.Success.PackageMetadataBCS)
	}
}

func TestScenarioB_StructuredFailure(t *testing.T) {
	t.Parallel()

	s := newStack(t, jsonReply(http.StatusBadRequest, `{"success":false,"error_count":1,"errors":[{"message":"unbound variable x"}]}`))

	s.controller.Submit(context.Background())

	v := s.controller.View()
	if v.Kind != ViewFailure {
		t.Fatalf("expected failure view, got %v", v.Kind)
	}
	if len(v.Failure.Errors) != 1 || v.Failure.Errors[0].Message != "unbound variable x" {
		t.Fatalf("expected the upstream message, got %+v", v.Failure.Errors)
	}
}

func TestScenarioC_PlainTextPanic(t *testing.T) {
	t.Parallel()

	s := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "internal server panic")
	})

	res := s.gw.Compile(context.Background(), "module m {}")
	if res.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Status)
	}

	s.controller.Submit(context.Background())

	v := s.controller.View()
	if v.Kind != ViewFailure {
		t.Fatalf("expected failure view, got %v", v.Kind)
	}
	want := model.Diagnostic{Message: "internal server panic", Kind: model.KindRawOutput}
	if len(v.Failure.Errors) != 1 || v.Failure.Errors[0] != want {
		t.Fatalf("expected %+v, got %+v", want, v.Failure.Errors)
	}
}

func TestFloatCountsBecomeFailureOutcome(t *testing.T) {
	t.Parallel()

	body := `{"success":false,"error_count":1.0,"errors":[{"message":"m","line":3.0}]}`
	s := newStack(t, jsonReply(http.StatusBadRequest, body))

	s.controller.Submit(context.Background())

	if got := s.controller.State(); got != StateFailed {
		t.Fatalf("expected %v, got %v", StateFailed, got)
	}
	v := s.controller.View()
	want := model.Diagnostic{Message: body, Kind: model.KindRawOutput}
	if len(v.Failure.Errors) != 1 || v.Failure.Errors[0] != want {
		t.Fatalf("expected %+v, got %+v", want, v.Failure.Errors)
	}
}

func TestNullMetadataIsSuccess(t *testing.T) {
	t.Parallel()

	s := newStack(t, jsonReply(http.StatusOK, `{"success":true,"modules":[{"name":"hello","bytecode_base64":"oRzrCw=="}],"package_metadata_bcs":null,"compiler_stdout":"","metadata":null}`))

	s.controller.Submit(context.Background())

	v := s.controller.View()
	if v.Kind != ViewSuccess {
		t.Fatalf("expected success view, got %v (%+v)", v.Kind, v)
	}
	if v.Success.Metadata != nil {
		t.Fatalf("expected nil metadata, got %+v", v.Success.Metadata)
	}
}

func TestScenarioD_UpstreamUnreachable(t *testing.T) {
	t.Parallel()

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	s := newStackWithUpstreamURL(t, url, &atomic.Int32{})

	res := s.gw.Compile(context.Background(), "module m {}")
	if res.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Status)
	}

	s.controller.Submit(context.Background())

	v := s.controller.View()
	if v.Kind != ViewFailure {
		t.Fatalf("expected failure view, got %v", v.Kind)
	}
	if len(v.Failure.Errors) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %+v", v.Failure.Errors)
	}
	if v.Failure.Errors[0].Kind != model.KindProxyError {
		t.Fatalf("expected proxy_error, got %q", v.Failure.Errors[0].Kind)
	}
}

func TestGatewayUnreachableIsTransportError(t *testing.T) {
	t.Parallel()

	gwSrv := httptest.NewServer(http.NotFoundHandler())
	url := gwSrv.URL
	gwSrv.Close()

	c := New(client.New(url, nil), "module m {}", discardLogger())
	c.Submit(context.Background())

	v := c.View()
	if v.Kind != ViewTransportError {
		t.Fatalf("expected transport error view, got %v", v.Kind)
	}
	if v.TransportError == "" {
		t.Fatal("expected transport error message")
	}
}

func TestGuardPreventsSecondUpstreamCall(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }

	s := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		jsonReply(http.StatusOK, `{"success":true,"modules":[],"package_metadata_bcs":null,"compiler_stdout":""}`)(w, r)
	})

	t.Cleanup(unblock)

	done := submitAsync(s.controller)
	<-entered

	if s.controller.Submit(context.Background()) {
		t.Fatal("expected submit during flight to be a no-op")
	}
	if got := s.gw.Tracker().Running(); got != 1 {
		t.Fatalf("expected 1 running upstream call, got %d", got)
	}

	unblock()
	waitDone(t, done)

	if got := s.hits.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
	if got := s.controller.State(); got != StateSucceeded {
		t.Fatalf("expected success, got %v", got)
	}
}
