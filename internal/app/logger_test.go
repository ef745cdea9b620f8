package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warn("delivery failed: %s", "status 500")
	logger.Error("store error")

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "delivery failed: status 500")
	assert.Contains(t, out, "ERROR")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.ErrorLevel,
		"":        zapcore.WarnLevel,
		"bogus":   zapcore.WarnLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestResolvePathsFrom(t *testing.T) {
	p := ResolvePathsFrom("/home/deploy")

	assert.Equal(t, "/home/deploy/.auditjournal", p.Home)
	assert.Equal(t, "/home/deploy/.auditjournal/setting.json", p.Setting)
	assert.Equal(t, "/home/deploy/.auditjournal/journal_callback.cache", p.Store)
}

func TestResolvePaths_UsesHOME(t *testing.T) {
	t.Setenv("HOME", "/srv/ops")

	assert.Equal(t, "/srv/ops/.auditjournal/journal_callback.cache", ResolvePaths().Store)
}
