package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevelFollowsEnvironment(t *testing.T) {
	t.Setenv("ENV", "development")
	if got := New().GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("expected debug level in development, got %s", got)
	}

	t.Setenv("ENV", "production")
	if got := New().GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("expected info level outside development, got %s", got)
	}
}
