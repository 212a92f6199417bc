// Package logging provides structured JSON logging for promptrace components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event represents a structured log event
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	RunID     string                 `json:"run_id,omitempty"`
	Provider  string                 `json:"provider,omitempty"`
	Model     string                 `json:"model,omitempty"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// Logger provides structured logging
type Logger struct {
	component string
	runID     string
	provider  string
	out       io.Writer
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{
		component: component,
		out:       os.Stderr,
	}
}

// NewWithWriter creates a logger writing to w (for testing).
func NewWithWriter(component string, w io.Writer) *Logger {
	return &Logger{
		component: component,
		out:       w,
	}
}

// WithRunID sets the run context
func (l *Logger) WithRunID(runID string) *Logger {
	clone := *l
	clone.runID = runID
	return &clone
}

// WithProvider sets the provider context
func (l *Logger) WithProvider(provider string) *Logger {
	clone := *l
	clone.provider = provider
	return &clone
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		RunID:     l.runID,
		Provider:  l.provider,
		Extra:     extra,
	}

	if err != nil {
		e.Error = err.Error()
	}

	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err)
}

// InvocationEvent logs one provider call with model, duration, and outcome.
func (l *Logger) InvocationEvent(provider, model string, duration time.Duration, retries int, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     "invoke",
		RunID:     l.runID,
		Provider:  provider,
		Model:     model,
		Duration:  duration.Milliseconds(),
		Extra: map[string]interface{}{
			"retries": retries,
		},
	}

	if err != nil {
		e.Level = LevelError
		e.Error = err.Error()
	}

	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}
