// Package render prints a session view as plain text.
package render

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iliamunaev/compile-gateway/internal/model"
	"github.com/iliamunaev/compile-gateway/internal/session"
)

// Text writes v to w.
func Text(w io.Writer, v session.View) error {
	var b strings.Builder

	switch v.Kind {
	case session.ViewPending:
		b.WriteString("Compiling...\n")
	case session.ViewSuccess:
		writeSuccess(&b, v.Success)
	case session.ViewFailure:
		writeFailure(&b, v.Failure)
	case session.ViewTransportError:
		fmt.Fprintf(&b, "Request failed: %s\n", v.TransportError)
	default:
		b.WriteString("Ready.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Preview lengths for base64 payloads.
const (
	modulePreview   = 200
	metadataPreview = 400
)

func writeSuccess(b *strings.Builder, s *model.CompileSuccess) {
	fmt.Fprintf(b, "Compiled %d module(s)\n", len(s.Modules))
	if len(s.Modules) == 0 {
		b.WriteString("  No .mv modules found.\n")
	}
	for _, m := range s.Modules {
		fmt.Fprintf(b, "  - %s (%s)\n", m.Name, byteSize(m.BytecodeBase64))
		fmt.Fprintf(b, "    %s\n", preview(m.BytecodeBase64, modulePreview))
	}

	if s.PackageMetadataBCS != nil && *s.PackageMetadataBCS != "" {
		md := *s.PackageMetadataBCS
		fmt.Fprintf(b, "Package metadata (.bcs): %s\n", byteSize(md))
		fmt.Fprintf(b, "  %s\n", preview(md, metadataPreview))
	} else {
		b.WriteString("Package metadata (.bcs): No metadata generated.\n")
	}

	if md := s.Metadata; md != nil {
		if md.ModuleCount != nil {
			fmt.Fprintf(b, "Module count: %d\n", *md.ModuleCount)
		}
		if md.HasMetadata != nil {
			fmt.Fprintf(b, "Has metadata: %t\n", *md.HasMetadata)
		}
	}

	if out := strings.TrimSpace(s.CompilerStdout); out != "" {
		b.WriteString("Compiler output:\n")
		b.WriteString(indent(out, "  "))
		b.WriteString("\n")
	}
}

func writeFailure(b *strings.Builder, f *model.CompileFailure) {
	fmt.Fprintf(b, "Compilation failed: %d error(s)\n", f.ErrorCount)

	caser := cases.Title(language.English)
	for i, d := range f.Errors {
		label := "Error"
		if d.Kind != "" {
			label = caser.String(strings.ReplaceAll(d.Kind, "_", " "))
		}
		fmt.Fprintf(b, "%d. [%s] %s\n", i+1, label, d.Message)
		if loc := location(d); loc != "" {
			fmt.Fprintf(b, "   at %s\n", loc)
		}
		if d.SourceLine != "" {
			fmt.Fprintf(b, "   | %s\n", d.SourceLine)
		}
	}
}

func location(d model.Diagnostic) string {
	if d.File == "" && d.Line == 0 {
		return ""
	}
	loc := d.File
	if d.Line > 0 {
		loc += fmt.Sprintf(":%d", d.Line)
		if d.Column > 0 {
			loc += fmt.Sprintf(":%d", d.Column)
		}
	}
	return strings.TrimPrefix(loc, ":")
}

func byteSize(b64 string) string {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "invalid base64"
	}
	return fmt.Sprintf("%d bytes", len(raw))
}

// preview cuts s to n bytes, marking the cut with an ellipsis.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
