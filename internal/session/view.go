package session

import "github.com/iliamunaev/compile-gateway/internal/model"

// ViewKind selects which panel is displayable. Kinds are mutually exclusive.
type ViewKind int

const (
	ViewInput          ViewKind = iota // input form only
	ViewPending                        // input form + pending indicator
	ViewSuccess                        // input form + modules, metadata, stdout
	ViewFailure                        // input form + diagnostics
	ViewTransportError                 // input form + generic failure banner
)

// View is what a front end renders for the current state.
type View struct {
	Kind           ViewKind
	Code           string
	Success        *model.CompileSuccess
	Failure        *model.CompileFailure
	TransportError string
}

// View returns the displayable view for the current state.
func (c *Controller) View() View {
	return c.Snapshot().View()
}

// View maps s to its displayable view.
func (s Snapshot) View() View {
	v := View{Code: s.Code}
	switch s.State() {
	case StateCompiling:
		v.Kind = ViewPending
	case StateSucceeded:
		v.Kind = ViewSuccess
		v.Success = s.Outcome.Success
	case StateFailed:
		v.Kind = ViewFailure
		v.Failure = s.Outcome.Failure
	case StateTransportError:
		v.Kind = ViewTransportError
		v.TransportError = s.TransportError
	default:
		v.Kind = ViewInput
	}
	return v
}
