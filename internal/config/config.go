// Package config resolves process configuration from the environment.
package config

import (
	"log/slog"
	"strings"
)

// Default upstream base URLs per deployment profile.
const (
	DevelopmentUpstream = "http://localhost:8000"
	DeployedUpstream    = "http://backend:8000"
	DefaultAddr         = ":8080"
)

// Config is the resolved gateway configuration.
type Config struct {
	// UpstreamBaseURL is the compiler service base URL, without trailing slash.
	UpstreamBaseURL string
	// Addr is the listen address of the gateway server.
	Addr string
	// LogLevel is the minimum level for the process logger.
	LogLevel slog.Level
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load resolves a Config using lookup.
//
// BACKEND_URL wins when set. Otherwise APP_ENV picks the profile default:
// "development" or "dev" use the loopback compiler, anything else the
// service-discovery host.
func Load(lookup LookupFunc) Config {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	cfg := Config{
		UpstreamBaseURL: DeployedUpstream,
		Addr:            getOrDefault(lookup, "ADDR", DefaultAddr),
		LogLevel:        parseLevel(getOrDefault(lookup, "LOG_LEVEL", "info")),
	}

	if isDevelopment(getOrDefault(lookup, "APP_ENV", "")) {
		cfg.UpstreamBaseURL = DevelopmentUpstream
	}
	if v, ok := lookup("BACKEND_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.UpstreamBaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}

	return cfg
}

func getOrDefault(lookup LookupFunc, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func isDevelopment(profile string) bool {
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case "development", "dev":
		return true
	default:
		return false
	}
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
