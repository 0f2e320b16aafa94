// Package model defines the compile contract shared by the gateway and its clients.
// It keeps wire-level types in one place for reuse.
package model

import (
	"encoding/json"
	"errors"
)

// Discriminator values carried in the optional "type" field.
const (
	TypeCompileSuccess = "compile_success"
	TypeCompileFailed  = "compile_failed"
)

// Diagnostic kinds synthesized by the gateway.
const (
	KindRawOutput  = "raw_output"
	KindProxyError = "proxy_error"
)

// ErrUnknownOutcome is returned when a payload is neither a success nor a failure.
var ErrUnknownOutcome = errors.New("payload is not a compile outcome")

// CompileRequest is the input payload for a compile attempt.
type CompileRequest struct {
	Code string `json:"code"`
}

// Module is one compiled module, in upstream order.
type Module struct {
	Name           string `json:"name"`
	BytecodeBase64 string `json:"bytecode_base64"`
}

// Metadata is optional build metadata reported with a success.
type Metadata struct {
	ModuleCount *int  `json:"module_count,omitempty"`
	HasMetadata *bool `json:"has_metadata,omitempty"`
}

// CompileSuccess is the success variant of an Outcome.
type CompileSuccess struct {
	Type               string    `json:"type,omitempty"`
	Success            bool      `json:"success"`
	Modules            []Module  `json:"modules"`
	PackageMetadataBCS *string   `json:"package_metadata_bcs"`
	CompilerStdout     string    `json:"compiler_stdout"`
	Metadata           *Metadata `json:"metadata,omitempty"`
}

// Diagnostic is a single compile error.
// Line and Column are 1-based; zero means unknown.
type Diagnostic struct {
	Message    string `json:"message"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	SourceLine string `json:"source_line,omitempty"`
	Kind       string `json:"type,omitempty"` // "raw_output", "proxy_error", upstream-defined
}

// CompileFailure is the failure variant of an Outcome.
//
// ErrorCount is reported by the upstream and may differ from len(Errors).
type CompileFailure struct {
	Type       string       `json:"type,omitempty"`
	Success    bool         `json:"success"`
	ErrorCount int          `json:"error_count"`
	Errors     []Diagnostic `json:"errors"`
}

// Outcome is the result of one compile attempt.
// Exactly one of Success and Failure is set.
type Outcome struct {
	Success *CompileSuccess
	Failure *CompileFailure
}

// Succeeded reports whether o holds the success variant.
func (o Outcome) Succeeded() bool { return o.Success != nil }

// NewFailure returns a failure outcome with a single diagnostic.
func NewFailure(message, kind string) Outcome {
	return Outcome{Failure: &CompileFailure{
		Type:       TypeCompileFailed,
		ErrorCount: 1,
		Errors:     []Diagnostic{{Message: message, Kind: kind}},
	}}
}

// MarshalJSON encodes whichever variant is set.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Success != nil && o.Failure == nil:
		s := *o.Success
		s.Success = true
		if s.Modules == nil {
			s.Modules = []Module{}
		}
		return json.Marshal(s)
	case o.Failure != nil && o.Success == nil:
		f := *o.Failure
		f.Success = false
		if f.Errors == nil {
			f.Errors = []Diagnostic{}
		}
		return json.Marshal(f)
	default:
		return nil, ErrUnknownOutcome
	}
}

// UnmarshalJSON decodes either variant, using the "success" flag as discriminator.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var head struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Success == nil {
		return ErrUnknownOutcome
	}

	if *head.Success {
		var s CompileSuccess
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s.Modules == nil {
			s.Modules = []Module{}
		}
		*o = Outcome{Success: &s}
		return nil
	}

	var f CompileFailure
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.Errors == nil {
		f.Errors = []Diagnostic{}
	}
	*o = Outcome{Failure: &f}
	return nil
}
