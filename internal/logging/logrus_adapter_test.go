package logging

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{"debug level with text format", "debug", "text", logrus.DebugLevel, false},
		{"info level with json format", "info", "json", logrus.InfoLevel, true},
		{"upper case level", "WARN", "text", logrus.WarnLevel, false},
		{"invalid level defaults to info", "loud", "text", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok, "logger should be a LogrusAdapter")
			assert.Equal(t, tt.expectLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	logger := NewLogrusAdapterFromLogger(nil)
	adapter, ok := logger.(*LogrusAdapter)
	require.True(t, ok)
	assert.NotNil(t, adapter.logger)
}

func TestLogrusAdapter_WritesFieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("debug", "text", &buf)

	logger.
		WithField(FieldCategory, "groceries").
		WithError(errors.New("model unavailable")).
		Warn("fallback degraded", F(FieldProvider, "embedding"))

	output := buf.String()
	assert.Contains(t, output, "fallback degraded")
	assert.Contains(t, output, "groceries")
	assert.Contains(t, output, "model unavailable")
	assert.Contains(t, output, "embedding")
}

func TestLogrusAdapter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConvertFields(t *testing.T) {
	fields := convertFields([]Field{F("a", 1), F("b", "two")})
	assert.Equal(t, 1, fields["a"])
	assert.Equal(t, "two", fields["b"])
	assert.Len(t, convertFields(nil), 0)
}

func TestMockLogger_DerivedLoggersShareEntries(t *testing.T) {
	root := &MockLogger{}
	root.WithError(errors.New("boom")).WithField(FieldSource, "fallback").Warn("degraded")
	root.Info("plain")

	entries := root.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.EqualError(t, entries[0].Error, "boom")
	assert.Equal(t, []Field{F(FieldSource, "fallback")}, entries[0].Fields)
	assert.True(t, root.HasEntry("INFO", "plain"))
	assert.Len(t, root.GetEntriesByLevel("WARN"), 1)

	root.Clear()
	assert.Empty(t, root.GetEntries())
}

func TestMockLogger_ConcurrentUse(t *testing.T) {
	root := &MockLogger{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root.WithField("i", i).Debug("tick")
		}(i)
	}
	wg.Wait()
	assert.Len(t, root.GetEntries(), 50)
}

func TestImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
	var _ Logger = (*MockLogger)(nil)
}
