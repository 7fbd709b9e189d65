package client

import (
	"fmt"
	"sync"
	"time"
)

// ConnectionState represents the current state of the client connection.
type ConnectionState int

const (
	// DISCONNECTED indicates no active connection.
	DISCONNECTED ConnectionState = iota
	// CONNECTING indicates connection attempt in progress.
	CONNECTING
	// CONNECTED indicates active, established connection.
	CONNECTED
	// DISCONNECTING indicates graceful disconnect in progress.
	DISCONNECTING
)

// String returns the string representation of the connection state.
func (cs ConnectionState) String() string {
	switch cs {
	case DISCONNECTED:
		return "DISCONNECTED"
	case CONNECTING:
		return "CONNECTING"
	case CONNECTED:
		return "CONNECTED"
	case DISCONNECTING:
		return "DISCONNECTING"
	default:
		return "UNKNOWN"
	}
}

// StateTransition records one change of connection state.
//
// Metadata keys used by Client: "reason" ("user_initiated", "error",
// "reconnect", "reconnect_failed", "attached"), "attempt", "attempts" and
// "driver".
type StateTransition struct {
	From      ConnectionState
	To        ConnectionState
	Timestamp time.Time
	// Error is set for failed connects and failed reconnects.
	Error error
	// Duration is how long From was held.
	Duration time.Duration
	Metadata map[string]interface{}
}

// StateChangeHandler is called after every successful transition.
type StateChangeHandler func(transition StateTransition)

// legalTransitions lists, per state, the states it may move to.
// CONNECTED -> CONNECTING is the reconnect path of SQLConnection.
var legalTransitions = map[ConnectionState][]ConnectionState{
	DISCONNECTED:  {CONNECTING},
	CONNECTING:    {CONNECTED, DISCONNECTED},
	CONNECTED:     {DISCONNECTING, CONNECTING},
	DISCONNECTING: {DISCONNECTED},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to ConnectionState) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateManager tracks the client's connection state and notifies handlers.
type StateManager struct {
	mu       sync.RWMutex
	current  ConnectionState
	last     StateTransition
	handlers []StateChangeHandler
}

// NewStateManager creates a state manager in DISCONNECTED state.
func NewStateManager() *StateManager {
	return &StateManager{
		current: DISCONNECTED,
		last:    StateTransition{From: DISCONNECTED, To: DISCONNECTED, Timestamp: time.Now()},
	}
}

// TransitionTo moves to newState or fails when CanTransition forbids it.
// Handlers run synchronously after the lock is released.
func (sm *StateManager) TransitionTo(newState ConnectionState, err error, metadata map[string]interface{}) error {
	transition, handlers, terr := sm.advance(newState, err, metadata)
	if terr != nil {
		return terr
	}
	for _, handler := range handlers {
		handler(transition)
	}
	return nil
}

func (sm *StateManager) advance(newState ConnectionState, err error, metadata map[string]interface{}) (StateTransition, []StateChangeHandler, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !CanTransition(sm.current, newState) {
		return StateTransition{}, nil, fmt.Errorf("illegal state transition: %s -> %s", sm.current, newState)
	}

	now := time.Now()
	sm.last = StateTransition{
		From:      sm.current,
		To:        newState,
		Timestamp: now,
		Error:     err,
		Duration:  now.Sub(sm.last.Timestamp),
		Metadata:  metadata,
	}
	sm.current = newState
	return sm.last, append([]StateChangeHandler(nil), sm.handlers...), nil
}

// OnStateChange registers a handler to be called on state transitions.
func (sm *StateManager) OnStateChange(handler StateChangeHandler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.handlers = append(sm.handlers, handler)
}

// GetState returns the current connection state.
func (sm *StateManager) GetState() ConnectionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// GetLastTransition returns the most recent state transition. Before the
// first transition it reports DISCONNECTED -> DISCONNECTED at creation time.
func (sm *StateManager) GetLastTransition() StateTransition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.last
}

// InState returns how long the current state has been held.
func (sm *StateManager) InState() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.last.Timestamp)
}
