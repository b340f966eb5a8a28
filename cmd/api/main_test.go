package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"postgres://docket:s3cret@db:5432/docket", "postgres://docket@db:5432/docket"},
		{"redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"postgres://db/docket?password=s3cret&sslmode=disable", "postgres://db/docket?password=redacted&sslmode=disable"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	secret := "postgres://docket:s3cret@db:5432/docket"
	err := errors.New("dial " + secret + " failed: password=hunter2")

	got := sanitizeError(err, secret)
	if strings.Contains(got, "s3cret") || strings.Contains(got, "hunter2") {
		t.Errorf("secret leaked: %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
