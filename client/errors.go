package client

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// ExecutionError reports a failed statement. StatementIndex is 1-based
// within the submitted text; Message carries the driver's error text.
type ExecutionError struct {
	Code           string                 `json:"code"`
	Type           string                 `json:"type"`
	Message        string                 `json:"message"`
	StatementIndex int                    `json:"statement_index"`
	Statement      string                 `json:"statement,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	Cause          error                  `json:"cause,omitempty"`
	StackTrace     []string               `json:"stack_trace,omitempty"`
	Timestamp      time.Time              `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return e.FormatError(false)
}

// FormatError formats the error based on debug mode.
func (e *ExecutionError) FormatError(debugMode bool) string {
	if !debugMode {
		return fmt.Sprintf("%s: statement %d failed: %s", e.Code, e.StatementIndex, e.Message)
	}

	data := baseErrorData(e.Code, e.Type, e.Message, e.Details, e.Cause, e.StackTrace, e.Timestamp)
	data["statement_index"] = e.StatementIndex
	if e.Statement != "" {
		data["statement"] = e.Statement
	}
	return marshalErrorData(data)
}

// Unwrap returns the driver error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// ValidationError reports malformed input detected before any database call.
type ValidationError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Field      string                 `json:"field,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
	StackTrace []string               `json:"stack_trace,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.FormatError(false)
}

// FormatError formats the error based on debug mode.
func (e *ValidationError) FormatError(debugMode bool) string {
	if !debugMode {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", e.Code, e.Message, e.Cause.Error())
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	data := baseErrorData(e.Code, e.Type, e.Message, e.Details, e.Cause, e.StackTrace, time.Time{})
	if e.Field != "" {
		data["field"] = e.Field
	}
	return marshalErrorData(data)
}

// Unwrap returns the underlying cause error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// TransactionError represents commit and rollback failures.
type TransactionError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details"`
	State      string                 `json:"state,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
	StackTrace []string               `json:"stack_trace,omitempty"`
	Timestamp  time.Time              `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	return e.FormatError(false)
}

// FormatError formats the error based on debug mode.
func (e *TransactionError) FormatError(debugMode bool) string {
	if !debugMode {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", e.Code, e.Message, e.Cause.Error())
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	data := baseErrorData(e.Code, e.Type, e.Message, e.Details, e.Cause, e.StackTrace, e.Timestamp)
	if e.State != "" {
		data["state"] = e.State
	}
	return marshalErrorData(data)
}

// Unwrap returns the underlying cause error.
func (e *TransactionError) Unwrap() error {
	return e.Cause
}

// ConnectionError represents failures to open, ping or reopen the database handle.
type ConnectionError struct {
	Code        string                 `json:"code"`
	Type        string                 `json:"type"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details"`
	Cause       error                  `json:"cause,omitempty"`
	StackTrace  []string               `json:"stack_trace,omitempty"`
	Timestamp   time.Time              `json:"timestamp,omitempty"`
	GoroutineID int                    `json:"goroutine_id,omitempty"`
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return e.FormatError(false)
}

// FormatError formats the error based on debug mode setting.
// When debugMode=false: returns simple "CODE: message" format.
// When debugMode=true: returns full JSON with stack trace, timestamp, goroutine ID.
func (e *ConnectionError) FormatError(debugMode bool) string {
	if !debugMode {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", e.Code, e.Message, e.Cause.Error())
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	data := baseErrorData(e.Code, e.Type, e.Message, e.Details, e.Cause, e.StackTrace, e.Timestamp)
	if e.GoroutineID > 0 {
		data["goroutine_id"] = e.GoroutineID
	}
	return marshalErrorData(data)
}

// Unwrap returns the underlying cause error for errors.Is and errors.As compatibility.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// StateError represents invalid state for an operation.
type StateError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details"`
	StackTrace []string               `json:"stack_trace,omitempty"`
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return e.FormatError(false)
}

// FormatError formats the error based on debug mode.
func (e *StateError) FormatError(debugMode bool) string {
	if !debugMode {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return marshalErrorData(baseErrorData(e.Code, e.Type, e.Message, e.Details, nil, e.StackTrace, time.Time{}))
}

// ErrInvalidState creates a StateError for operations attempted in wrong state.
func ErrInvalidState(operation string, required, actual ConnectionState) error {
	return &StateError{
		Code:    "INVALID_STATE",
		Type:    "STATE_ERROR",
		Message: fmt.Sprintf("%s requires %s state, currently %s", operation, required, actual),
		Details: map[string]interface{}{
			"operation":     operation,
			"requiredState": required.String(),
			"currentState":  actual.String(),
		},
		StackTrace: captureStackTrace(),
	}
}

// ErrStatementFailed wraps a driver error raised by the index-th statement.
func ErrStatementFailed(index int, statement string, cause error) *ExecutionError {
	return &ExecutionError{
		Code:           "E_STATEMENT_FAILED",
		Type:           "EXECUTION_ERROR",
		Message:        cause.Error(),
		StatementIndex: index,
		Statement:      statement,
		Cause:          cause,
		StackTrace:     captureStackTrace(),
		Timestamp:      time.Now(),
	}
}

// ErrInvalidTableName creates a ValidationError for a malformed table name.
func ErrInvalidTableName(name string, cause error) *ValidationError {
	return &ValidationError{
		Code:    "E_INVALID_TABLE_NAME",
		Type:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("invalid table name %q", name),
		Field:   "table",
		Details: map[string]interface{}{
			"table": name,
		},
		Cause:      cause,
		StackTrace: captureStackTrace(),
	}
}

// ErrInvalidFrame creates a ValidationError for a frame that cannot be loaded.
func ErrInvalidFrame(reason string) *ValidationError {
	return &ValidationError{
		Code:       "E_INVALID_FRAME",
		Type:       "VALIDATION_ERROR",
		Message:    reason,
		Field:      "frame",
		StackTrace: captureStackTrace(),
	}
}

// ErrCommitFailed creates a TransactionError for a failed commit.
func ErrCommitFailed(cause error) *TransactionError {
	return &TransactionError{
		Code:       "E_COMMIT_FAILED",
		Type:       "TRANSACTION_ERROR",
		Message:    "failed to commit transaction",
		State:      "active",
		Cause:      cause,
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
}

// ErrRollbackFailed creates a TransactionError for a failed rollback.
// The rollback failure is the cause; the error that triggered the
// rollback, if any, is kept in Details.
func ErrRollbackFailed(cause, original error) *TransactionError {
	e := &TransactionError{
		Code:       "E_ROLLBACK_FAILED",
		Type:       "TRANSACTION_ERROR",
		Message:    "failed to roll back transaction",
		State:      "failed",
		Details:    map[string]interface{}{},
		Cause:      cause,
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
	if original != nil {
		e.Details["original_error"] = original.Error()
	}
	return e
}

// ErrConnectFailed creates a ConnectionError for a failed open or ping.
func ErrConnectFailed(driver string, cause error) *ConnectionError {
	return &ConnectionError{
		Code:    "E_CONNECT_FAILED",
		Type:    "CONNECTION_ERROR",
		Message: fmt.Sprintf("failed to connect using driver %q", driver),
		Details: map[string]interface{}{
			"driver": driver,
		},
		Cause:       cause,
		StackTrace:  captureStackTrace(),
		Timestamp:   time.Now(),
		GoroutineID: getGoroutineID(),
	}
}

// ErrCursorFailed creates a ConnectionError when no cursor could be opened,
// typically because a transaction could not be begun.
func ErrCursorFailed(cause error) *ConnectionError {
	return &ConnectionError{
		Code:        "E_CURSOR_FAILED",
		Type:        "CONNECTION_ERROR",
		Message:     "failed to open cursor",
		Details:     map[string]interface{}{},
		Cause:       cause,
		StackTrace:  captureStackTrace(),
		Timestamp:   time.Now(),
		GoroutineID: getGoroutineID(),
	}
}

// ErrReconnectFailed creates a ConnectionError after reconnect attempts are exhausted.
func ErrReconnectFailed(attempts int, cause error) *ConnectionError {
	return &ConnectionError{
		Code:    "E_RECONNECT_FAILED",
		Type:    "CONNECTION_ERROR",
		Message: fmt.Sprintf("failed to reconnect after %d attempts", attempts),
		Details: map[string]interface{}{
			"attempts": attempts,
		},
		Cause:       cause,
		StackTrace:  captureStackTrace(),
		Timestamp:   time.Now(),
		GoroutineID: getGoroutineID(),
	}
}

func baseErrorData(code, typ, msg string, details map[string]interface{}, cause error, stack []string, ts time.Time) map[string]interface{} {
	data := map[string]interface{}{
		"code":    code,
		"type":    typ,
		"message": msg,
	}
	if len(details) > 0 {
		data["details"] = details
	}
	if cause != nil {
		data["cause"] = map[string]interface{}{"message": cause.Error()}
	}
	if len(stack) > 0 {
		data["stack_trace"] = stack
	}
	if !ts.IsZero() {
		data["timestamp"] = ts.Format(time.RFC3339Nano)
	}
	return data
}

func marshalErrorData(data map[string]interface{}) string {
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

// captureStackTrace captures the current stack trace for error reporting.
func captureStackTrace() []string {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(3, pcs) // Skip captureStackTrace, the error constructor, and runtime.Callers

	frames := make([]string, 0, n)
	callersFrames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return frames
}

// getGoroutineID extracts the goroutine ID for debugging.
// Note: This uses runtime stack parsing and is intended for debug purposes only.
func getGoroutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id int
	fmt.Sscanf(string(buf[:n]), "goroutine %d ", &id)
	return id
}

// FormatError is a helper to format any error with debug mode support.
func FormatError(err error, debugMode bool) string {
	if err == nil {
		return ""
	}

	type debugFormatter interface {
		FormatError(bool) string
	}

	if formatter, ok := err.(debugFormatter); ok {
		return formatter.FormatError(debugMode)
	}
	return err.Error()
}
