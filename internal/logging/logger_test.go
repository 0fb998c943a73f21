package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fzdarsky/ccclogin/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFormat(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatJSON)
	logger.SetOutput(&out, &errOut)

	logger.Info("login attempt", map[string]any{
		"server":     "vpn.example.com",
		"request_id": "2",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "login attempt", entry["message"])
	assert.NotEmpty(t, entry["timestamp"])

	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "vpn.example.com", fields["server"])
	assert.Equal(t, "2", fields["request_id"])
	assert.Empty(t, errOut.String())
}

func TestLogger_HumanFormat(t *testing.T) {
	var out bytes.Buffer
	logger := logging.New(logging.LevelInfo, logging.FormatHuman)
	logger.SetOutput(&out, &out)

	logger.Info("login attempt", map[string]any{"b": 2, "a": 1})

	output := out.String()
	assert.Contains(t, output, "info: login attempt")
	assert.Contains(t, output, " a=1 b=2", "fields should be sorted")
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  logging.LogLevel
		logFunc   func(*logging.Logger)
		shouldLog bool
	}{
		{
			name:      "debug logged when level is debug",
			logLevel:  logging.LevelDebug,
			logFunc:   func(l *logging.Logger) { l.Debug("test") },
			shouldLog: true,
		},
		{
			name:      "debug not logged when level is info",
			logLevel:  logging.LevelInfo,
			logFunc:   func(l *logging.Logger) { l.Debug("test") },
			shouldLog: false,
		},
		{
			name:      "warn logged when level is info",
			logLevel:  logging.LevelInfo,
			logFunc:   func(l *logging.Logger) { l.Warn("test") },
			shouldLog: true,
		},
		{
			name:      "info not logged when level is error",
			logLevel:  logging.LevelError,
			logFunc:   func(l *logging.Logger) { l.Info("test") },
			shouldLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			logger := logging.New(tt.logLevel, logging.FormatJSON)
			logger.SetOutput(&out, &errOut)

			tt.logFunc(logger)

			if tt.shouldLog {
				assert.NotEmpty(t, out.String()+errOut.String())
			} else {
				assert.Empty(t, out.String()+errOut.String())
			}
		})
	}
}

func TestLogger_ErrorsGoToErrorWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := logging.New(logging.LevelDebug, logging.FormatJSON)
	logger.SetOutput(&out, &errOut)

	logger.Error("boom")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "boom")
}

func TestLogger_SecretRedaction(t *testing.T) {
	var out bytes.Buffer
	logger := logging.New(logging.LevelDebug, logging.FormatJSON)
	logger.SetOutput(&out, &out)

	logger.WithFields(map[string]any{"server": "vpn.example.com"}).Debug("exchange", map[string]any{
		"password":   "hunter2",
		"active_key": "K-123",
		"request_id": "7",
		"nested": map[string]any{
			"Username": "alice",
		},
	})

	output := out.String()
	assert.NotContains(t, output, "hunter2")
	assert.NotContains(t, output, "K-123")
	assert.NotContains(t, output, "alice")
	assert.Contains(t, output, "vpn.example.com")
	assert.Contains(t, output, `"request_id":"7"`)
	assert.Contains(t, output, "[REDACTED]")
}

func TestRedactor_CustomKeys(t *testing.T) {
	r := logging.NewRedactor()
	r.AddSensitiveKey("Realm")
	r.RemoveSensitiveKey("username")

	redacted := r.RedactFields(map[string]any{"realm": "corp", "username": "alice"})
	assert.Equal(t, "[REDACTED]", redacted["realm"])
	assert.Equal(t, "alice", redacted["username"])

	assert.Nil(t, r.RedactFields(nil))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		logging.Nop().Error("discarded")
	})
}

func TestParseLevel(t *testing.T) {
	level, err := logging.ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, level)

	_, err = logging.ParseLevel("verbose")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	format, err := logging.ParseFormat("Human")
	require.NoError(t, err)
	assert.Equal(t, logging.FormatHuman, format)

	_, err = logging.ParseFormat("xml")
	assert.Error(t, err)
}
