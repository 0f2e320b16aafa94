// Command compile submits a source file to a compile gateway and prints the result.
//
//	compile -gateway http://localhost:8080 -file sources/hello.move
//
// With no -file, source is read from stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliamunaev/compile-gateway/internal/client"
	"github.com/iliamunaev/compile-gateway/internal/render"
	"github.com/iliamunaev/compile-gateway/internal/session"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	gatewayURL := fs.String("gateway", envOrDefault("COMPILE_GATEWAY_URL", client.DefaultGatewayURL), "compile gateway base URL")
	file := fs.String("file", "", "source file to compile (default: stdin)")
	verbose := fs.Bool("v", false, "log request lifecycle to stderr")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	code, err := readSource(*file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read source: %v\n", err)
		return exitUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c := session.New(client.New(*gatewayURL, nil), code, logger)
	if !c.Submit(ctx) {
		fmt.Fprintln(stderr, "nothing to compile: source is empty")
		return exitUsage
	}

	if err := render.Text(stdout, c.View()); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return exitFailed
	}

	if c.State() != session.StateSucceeded {
		return exitFailed
	}
	return exitOK
}

func readSource(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
