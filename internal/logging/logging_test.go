package logging

import "testing"

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	orig := GetLevel()
	defer SetLevel(orig)

	SetLevel(LevelError)
	if got := GetLevel(); got != LevelError {
		t.Errorf("GetLevel() = %v after SetLevel(LevelError)", got)
	}
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true at error level")
	}

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled() = false at debug level")
	}
}
