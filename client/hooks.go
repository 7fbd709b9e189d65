package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/uuid"

	"github.com/dan-strohschein/pgtab/dataset"
)

// HookContext contains information about the SQL text being executed.
// This is passed to hooks to allow inspection and modification.
type HookContext struct {
	// Command is the raw SQL text handed to the executor
	Command string

	// CommandType categorizes the first statement (query, mutation, schema, ...)
	CommandType string

	// Fingerprint is a stable hash of Command, usable as a metrics key
	Fingerprint uint64

	// StatementCount is the number of statements Command splits into
	StatementCount int

	// StartTime is when execution began
	StartTime time.Time

	// Metadata allows hooks to store arbitrary data for passing between Before/After
	Metadata map[string]interface{}

	// TraceID is the unique identifier for this execution
	TraceID string

	// Result stores the result table (set after execution, available in After hook)
	Result *dataset.ResultTable

	// Error stores any error that occurred (available in After hook)
	Error error

	// Duration is the execution time (available in After hook)
	Duration time.Duration
}

// newHookContext builds the context for one executor call.
func newHookContext(command string) *HookContext {
	hc := &HookContext{
		StartTime: time.Now(),
		Metadata:  make(map[string]interface{}),
		TraceID:   uuid.New().String(),
	}
	hc.setCommand(command)
	return hc
}

// setCommand updates Command and everything derived from it.
func (hc *HookContext) setCommand(command string) {
	hc.Command = command
	hc.CommandType = inferCommandType(command)
	hc.Fingerprint = xxhash.Sum64String(command)
	hc.StatementCount = len(SplitStatements(command))
}

// Hook is the interface that all hooks must implement.
// Hooks can inspect, modify, or abort execution.
type Hook interface {
	// Name returns the unique name of this hook
	Name() string

	// Before is called before execution.
	// Returning an error aborts execution and returns the error.
	// Hooks can modify the HookContext (e.g., change Command, add Metadata).
	Before(ctx context.Context, hookCtx *HookContext) error

	// After is called after execution (even if it failed).
	// Returning an error replaces any existing error.
	After(ctx context.Context, hookCtx *HookContext) error
}

// HookChain is an ordered, named set of hooks.
// Hooks are executed in FIFO order (first registered, first executed).
type HookChain struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger Logger
}

// NewHookChain creates an empty hook chain.
func NewHookChain(logger Logger) *HookChain {
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &HookChain{logger: logger}
}

// Register adds a hook. If a hook with the same name already exists,
// it is replaced in place.
func (hc *HookChain) Register(hook Hook) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	for i, h := range hc.hooks {
		if h.Name() == hook.Name() {
			hc.hooks[i] = hook
			hc.logger.Info("hook replaced", String("hook", hook.Name()))
			return
		}
	}

	hc.hooks = append(hc.hooks, hook)
	hc.logger.Info("hook registered", String("hook", hook.Name()), Int("order", len(hc.hooks)-1))
}

// Unregister removes a hook by name.
// Returns true if the hook was found and removed, false otherwise.
func (hc *HookChain) Unregister(name string) bool {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	for i, h := range hc.hooks {
		if h.Name() == name {
			hc.hooks = append(hc.hooks[:i], hc.hooks[i+1:]...)
			hc.logger.Info("hook unregistered", String("hook", name))
			return true
		}
	}
	return false
}

// Names returns the names of all registered hooks in execution order.
func (hc *HookChain) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	names := make([]string, len(hc.hooks))
	for i, h := range hc.hooks {
		names[i] = h.Name()
	}
	return names
}

func (hc *HookChain) snapshot() []Hook {
	if hc == nil {
		return nil
	}
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	hooks := make([]Hook, len(hc.hooks))
	copy(hooks, hc.hooks)
	return hooks
}

// before runs all Before hooks in order.
// If any hook returns an error, execution stops and the error is returned.
func (hc *HookChain) before(ctx context.Context, hookCtx *HookContext) error {
	for _, hook := range hc.snapshot() {
		command := hookCtx.Command
		if err := hook.Before(ctx, hookCtx); err != nil {
			hc.logger.Debug("hook aborted execution",
				String("hook", hook.Name()),
				String("trace_id", hookCtx.TraceID),
				Error("error", err))
			return err
		}
		if hookCtx.Command != command {
			hookCtx.setCommand(hookCtx.Command)
		}
	}
	return nil
}

// after runs all After hooks in order.
// All hooks are executed even if one returns an error.
// The last error returned (if any) is returned.
func (hc *HookChain) after(ctx context.Context, hookCtx *HookContext) error {
	var lastErr error
	for _, hook := range hc.snapshot() {
		if err := hook.After(ctx, hookCtx); err != nil {
			hc.logger.Debug("hook returned error in After",
				String("hook", hook.Name()),
				String("trace_id", hookCtx.TraceID),
				Error("error", err))
			lastErr = err
		}
	}
	return lastErr
}

// inferCommandType classifies SQL text by its leading keyword.
func inferCommandType(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "unknown"
	}

	switch strings.ToUpper(strings.TrimLeft(fields[0], "(")) {
	case "SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES", "TABLE":
		return "query"
	case "INSERT", "UPDATE", "DELETE", "MERGE", "COPY":
		return "mutation"
	case "BEGIN", "COMMIT", "ROLLBACK", "SAVEPOINT", "START":
		return "transaction"
	case "CREATE", "DROP", "ALTER", "TRUNCATE", "COMMENT":
		return "schema"
	default:
		return "unknown"
	}
}
