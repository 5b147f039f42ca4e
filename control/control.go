// Package control implements the operator's start/stop switch. The agent
// reads the resulting flag on its next poll; nothing in flight is
// interrupted.
package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrInvalidCommand is returned for any action other than start or stop.
var ErrInvalidCommand = errors.New("invalid command")

// State of the agent as the operator intends it.
type State string

const (
	Running State = "RUNNING"
	Stopped State = "STOPPED"
)

// Action names accepted by Apply.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// Store persists the running flag.
type Store interface {
	SetRunning(ctx context.Context, running bool) error
}

type Machine struct {
	store Store
	log   zerolog.Logger
}

func NewMachine(store Store, log zerolog.Logger) *Machine {
	return &Machine{store: store, log: log}
}

// Parse maps an action name to the target state.
func Parse(action string) (State, error) {
	switch action {
	case ActionStart:
		return Running, nil
	case ActionStop:
		return Stopped, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCommand, action)
	}
}

// Apply moves to the state named by action. Repeating a transition is a
// no-op in effect. Unknown actions change nothing.
func (m *Machine) Apply(ctx context.Context, action string) (State, error) {
	st, err := Parse(action)
	if err != nil {
		return "", err
	}
	if err := m.store.SetRunning(ctx, st == Running); err != nil {
		return "", fmt.Errorf("set running: %w", err)
	}
	m.log.Info().Str("action", action).Str("state", string(st)).Msg("control state changed")
	return st, nil
}

// Message is the operator-facing confirmation for a state.
func (s State) Message() string {
	if s == Running {
		return "EA started"
	}
	return "EA stopped"
}
