package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, buf *bytes.Buffer) Event {
	t.Helper()
	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	return e
}

func TestInfoEvent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("compare", &buf)

	log.Info("run_start", map[string]interface{}{"num_calls": 3})

	e := decodeEvent(t, &buf)
	assert.Equal(t, LevelInfo, e.Level)
	assert.Equal(t, "compare", e.Component)
	assert.Equal(t, "run_start", e.Event)
	assert.EqualValues(t, 3, e.Extra["num_calls"])
	assert.NotEmpty(t, e.Timestamp)
}

func TestWarnCarriesError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("invoke", &buf)

	log.Warn("retrying", nil, errors.New("rate limited"))

	e := decodeEvent(t, &buf)
	assert.Equal(t, LevelWarn, e.Level)
	assert.Equal(t, "rate limited", e.Error)
}

func TestWithRunIDAndProviderClone(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("invoke", &buf)
	scoped := base.WithRunID("run-123").WithProvider("openai")

	scoped.Info("invoke", nil)
	e := decodeEvent(t, &buf)
	assert.Equal(t, "run-123", e.RunID)
	assert.Equal(t, "openai", e.Provider)

	// The base logger stays unscoped.
	buf.Reset()
	base.Info("invoke", nil)
	e = decodeEvent(t, &buf)
	assert.Empty(t, e.RunID)
	assert.Empty(t, e.Provider)
}

func TestInvocationEventSuccess(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("invoke", &buf)

	log.InvocationEvent("anthropic", "claude-3-5-haiku-20241022", 1500*time.Millisecond, 2, nil)

	e := decodeEvent(t, &buf)
	assert.Equal(t, LevelInfo, e.Level)
	assert.Equal(t, "anthropic", e.Provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", e.Model)
	assert.EqualValues(t, 1500, e.Duration)
	assert.EqualValues(t, 2, e.Extra["retries"])
	assert.Empty(t, e.Error)
}

func TestInvocationEventFailure(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("invoke", &buf)

	log.InvocationEvent("openai", "gpt-4o-mini", time.Second, 3, errors.New("exhausted"))

	e := decodeEvent(t, &buf)
	assert.Equal(t, LevelError, e.Level)
	assert.Equal(t, "exhausted", e.Error)
}

func TestEventsAreLineDelimitedJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("compare", &buf)

	log.Info("one", nil)
	log.Info("two", nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var e Event
		assert.NoError(t, json.Unmarshal(line, &e))
	}
}
