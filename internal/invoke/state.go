package invoke

import (
	"time"

	"github.com/promptrace/promptrace/internal/provider"
)

// StateKind enumerates the retry state machine states.
type StateKind int

const (
	// StateAttempting means a call is (about to be) in flight.
	StateAttempting StateKind = iota
	// StateBackoff means the last attempt failed transiently; wait then retry.
	StateBackoff
	// StateSucceeded is terminal: the call returned a completion.
	StateSucceeded
	// StateFailed is terminal: permanent failure or retries exhausted.
	StateFailed
)

// State is one position in the retry state machine.
type State struct {
	Kind StateKind
	// Attempt counts completed attempts (first attempt transitions from 0 to 1).
	Attempt int
	// Delay is the backoff before the next attempt (Backoff only).
	Delay time.Duration
	// FailKind records why the machine stopped (Failed only).
	FailKind provider.ErrorKind
}

// Policy fixes the retry schedule: MaxRetries extra attempts with delays
// BaseDelay, 2*BaseDelay, 4*BaseDelay, ... between them.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy retries transient failures 3 times with 1s, 2s, 4s backoff.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second}
}

// Next advances the machine after one attempt. err == nil reaches Succeeded.
// Permanent errors and exhausted retries reach Failed; transient errors with
// retries remaining reach Backoff with the delay doubling each step.
func (p Policy) Next(cur State, err error) State {
	attempt := cur.Attempt + 1
	if err == nil {
		return State{Kind: StateSucceeded, Attempt: attempt}
	}

	kind := provider.Classify(err)
	if kind == provider.KindPermanent {
		return State{Kind: StateFailed, Attempt: attempt, FailKind: kind}
	}
	if attempt > p.MaxRetries {
		return State{Kind: StateFailed, Attempt: attempt, FailKind: kind}
	}
	return State{
		Kind:    StateBackoff,
		Attempt: attempt,
		Delay:   p.BaseDelay << (attempt - 1),
	}
}
