// Package session drives one user's compile attempts against a gateway.
//
// A Controller holds the source being edited and the result of the latest
// attempt. At most one attempt is in flight; Submit while one is running is
// a no-op.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/iliamunaev/compile-gateway/internal/model"
)

// errEmptyOutcome replaces a nil error paired with an outcome holding no variant.
var errEmptyOutcome = errors.New("gateway returned an empty outcome")

// Compiler submits code to a gateway.
type Compiler interface {
	Compile(ctx context.Context, code string) (model.Outcome, error)
}

// State is the derived lifecycle state of a Controller.
type State int

const (
	StateIdle State = iota
	StateCompiling
	StateSucceeded
	StateFailed
	StateTransportError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCompiling:
		return "compiling"
	case StateSucceeded:
		return "done(success)"
	case StateFailed:
		return "done(failure)"
	case StateTransportError:
		return "done(transport_error)"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of a Controller's state.
// At most one of Outcome and TransportError is set.
type Snapshot struct {
	Code           string
	InFlight       bool
	Outcome        *model.Outcome
	TransportError string
}

// State derives the lifecycle state from s.
func (s Snapshot) State() State {
	switch {
	case s.InFlight:
		return StateCompiling
	case s.Outcome != nil && s.Outcome.Succeeded():
		return StateSucceeded
	case s.Outcome != nil:
		return StateFailed
	case s.TransportError != "":
		return StateTransportError
	default:
		return StateIdle
	}
}

// Controller owns the request lifecycle of one session.
// It is safe for concurrent use.
type Controller struct {
	compiler Compiler
	logger   *slog.Logger

	mu           sync.Mutex
	code         string
	inFlight     bool
	outcome      *model.Outcome
	transportErr string
	gen          uint64
	cancel       context.CancelFunc
}

// New returns a Controller with initial source code.
// It panics if compiler is nil.
func New(compiler Compiler, code string, logger *slog.Logger) *Controller {
	if compiler == nil {
		panic("session.New: nil compiler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{compiler: compiler, code: code, logger: logger}
}

// Edit replaces the source code. An attempt already in flight keeps the
// code it was started with.
func (c *Controller) Edit(text string) {
	c.mu.Lock()
	c.code = text
	c.mu.Unlock()
}

// Submit starts a compile attempt and blocks until it settles.
//
// It returns false without contacting the gateway when an attempt is
// already in flight or the code is blank. Otherwise prior results are
// cleared, the gateway is called with the current code, and exactly one of
// the outcome and the transport error is recorded.
func (c *Controller) Submit(ctx context.Context) bool {
	c.mu.Lock()
	if c.inFlight || strings.TrimSpace(c.code) == "" {
		c.mu.Unlock()
		return false
	}
	code := c.code
	c.inFlight = true
	c.outcome = nil
	c.transportErr = ""
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	out, err := c.compiler.Compile(ctx, code)
	if err == nil && out.Success == nil && out.Failure == nil {
		err = errEmptyOutcome
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("discarding settled attempt after reset", "attempt", gen)
		return true
	}
	c.inFlight = false
	c.cancel = nil

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "transport error"
		}
		c.transportErr = msg
		c.logger.Warn("compile attempt failed", "attempt", gen, "error", err)
		return true
	}

	c.outcome = &out
	c.logger.Debug("compile attempt settled", "attempt", gen, "success", out.Succeeded())
	return true
}

// Reset abandons any in-flight attempt and clears results. The code is kept.
// An abandoned attempt that settles later leaves the state untouched.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.inFlight = false
	c.outcome = nil
	c.transportErr = ""
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Code:           c.code,
		InFlight:       c.inFlight,
		Outcome:        c.outcome,
		TransportError: c.transportErr,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.Snapshot().State() }
