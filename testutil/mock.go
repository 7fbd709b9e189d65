package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dan-strohschein/pgtab/client"
)

// MockConnection is a scripted client.Connection for testing.
// It provides a fluent API for setting up expectations and verifying calls.
//
// Statements without a matching expectation succeed with no result set
// unless the mock is strict.
//
// Example usage:
//
//	mock := NewMockConnection()
//	mock.ExpectExec("SELECT id FROM users").
//	    WillReturnRows([]string{"id"}, []any{int64(1)}, []any{int64(2)})
//
//	exec := client.NewExecutor(mock, true, nil)
//	result, err := exec.Execute(ctx, "SELECT id FROM users")
//	mock.VerifyExpectations(t)
type MockConnection struct {
	expectations []*Expectation
	calls        []Call
	mu           sync.Mutex
	strict       bool // If true, unexpected statements fail
	openErr      error
	inTx         bool
}

// Expectation represents an expected call and its scripted response.
type Expectation struct {
	method      string // "Exec", "Commit" or "Rollback"
	command     string // statement text for Exec
	prefix      bool   // match command as a prefix
	columns     []string
	rows        [][]any
	err         error
	discardErr  error
	times       int // Expected number of calls (-1 = any)
	actualCalls int
}

// Call represents an actual method call that was made.
type Call struct {
	Method  string
	Command string
}

// NewMockConnection creates a new mock connection.
func NewMockConnection() *MockConnection {
	return &MockConnection{
		expectations: make([]*Expectation, 0),
		calls:        make([]Call, 0),
	}
}

// Strict enables strict mode where unexpected statements return an error.
func (m *MockConnection) Strict() *MockConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strict = true
	return m
}

// FailOpenCursor makes every OpenCursor call return err.
func (m *MockConnection) FailOpenCursor(err error) *MockConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
	return m
}

// ExpectExec sets up an expectation for a statement with exactly this text.
func (m *MockConnection) ExpectExec(stmt string) *Expectation {
	return m.expect(&Expectation{method: "Exec", command: stmt, times: 1})
}

// ExpectExecPrefix sets up an expectation for a statement starting with prefix.
func (m *MockConnection) ExpectExecPrefix(prefix string) *Expectation {
	return m.expect(&Expectation{method: "Exec", command: prefix, prefix: true, times: 1})
}

// ExpectCommit sets up an expectation for a Commit call.
func (m *MockConnection) ExpectCommit() *Expectation {
	return m.expect(&Expectation{method: "Commit", times: 1})
}

// ExpectRollback sets up an expectation for a Rollback call.
func (m *MockConnection) ExpectRollback() *Expectation {
	return m.expect(&Expectation{method: "Rollback", times: 1})
}

func (m *MockConnection) expect(exp *Expectation) *Expectation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectations = append(m.expectations, exp)
	return exp
}

// WillReturnRows makes the statement produce a result set.
func (e *Expectation) WillReturnRows(columns []string, rows ...[]any) *Expectation {
	e.columns = columns
	e.rows = rows
	return e
}

// WillFailOnDiscard makes the statement's result set fail while it is
// being drained by Cursor.Discard, as lazily executing drivers do.
func (e *Expectation) WillFailOnDiscard(err error) *Expectation {
	e.discardErr = err
	return e
}

// WillReturnError sets the error to return for this expectation.
func (e *Expectation) WillReturnError(err error) *Expectation {
	e.err = err
	return e
}

// Times sets the expected number of times this call should occur.
// Use -1 for "any number of times".
func (e *Expectation) Times(n int) *Expectation {
	e.times = n
	return e
}

// AnyTimes allows this expectation to match any number of times.
func (e *Expectation) AnyTimes() *Expectation {
	return e.Times(-1)
}

func (e *Expectation) matches(method, command string) bool {
	if e.method != method {
		return false
	}
	if e.times != -1 && e.actualCalls >= e.times {
		return false
	}
	if method != "Exec" {
		return true
	}
	if e.prefix {
		return strings.HasPrefix(command, e.command)
	}
	return e.command == command
}

// match records the call and returns the first open expectation for it.
// Must be called with m.mu held.
func (m *MockConnection) match(method, command string) *Expectation {
	m.calls = append(m.calls, Call{Method: method, Command: command})
	for _, exp := range m.expectations {
		if exp.matches(method, command) {
			exp.actualCalls++
			return exp
		}
	}
	return nil
}

// OpenCursor implements client.Connection.
func (m *MockConnection) OpenCursor(ctx context.Context) (client.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "OpenCursor"})
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.inTx = true
	return &MockCursor{conn: m}, nil
}

// Commit implements client.Connection.
func (m *MockConnection) Commit(ctx context.Context) error {
	return m.endTx("Commit")
}

// Rollback implements client.Connection.
func (m *MockConnection) Rollback(ctx context.Context) error {
	return m.endTx("Rollback")
}

func (m *MockConnection) endTx(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTx = false
	if exp := m.match(method, ""); exp != nil {
		return exp.err
	}
	return nil
}

// Close implements client.Connection.
func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Close"})
	m.inTx = false
	return nil
}

// InTransaction reports whether a cursor was opened since the last
// Commit or Rollback.
func (m *MockConnection) InTransaction() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inTx
}

// VerifyExpectations checks that all expectations were met.
// Should be called at the end of each test.
func (m *MockConnection) VerifyExpectations(t testing.TB) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, exp := range m.expectations {
		if exp.times != -1 && exp.actualCalls != exp.times {
			t.Errorf("expectation %d (%s %s): expected %d calls, got %d",
				i, exp.method, exp.command, exp.times, exp.actualCalls)
		}
	}
}

// GetCalls returns all recorded method calls.
func (m *MockConnection) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call{}, m.calls...)
}

// GetCallCount returns the number of times a method was called.
func (m *MockConnection) GetCallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, call := range m.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

// Statements returns the text of every executed statement in order.
func (m *MockConnection) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stmts []string
	for _, call := range m.calls {
		if call.Method == "Exec" {
			stmts = append(stmts, call.Command)
		}
	}
	return stmts
}

// Reset clears all expectations and recorded calls.
func (m *MockConnection) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectations = make([]*Expectation, 0)
	m.calls = make([]Call, 0)
	m.inTx = false
}

// MockCursor is the cursor handed out by MockConnection.
type MockCursor struct {
	conn       *MockConnection
	columns    []string
	rows       [][]any
	discardErr error
	closed     bool
}

// Execute implements client.Cursor.
func (c *MockCursor) Execute(ctx context.Context, stmt string) error {
	m := c.conn
	m.mu.Lock()
	defer m.mu.Unlock()

	c.columns, c.rows, c.discardErr = nil, nil, nil
	if c.closed {
		return fmt.Errorf("cursor is closed")
	}

	exp := m.match("Exec", stmt)
	if exp == nil {
		if m.strict {
			return fmt.Errorf("unexpected statement: %s", stmt)
		}
		return nil
	}
	if exp.err != nil {
		return exp.err
	}
	c.columns = exp.columns
	c.rows = exp.rows
	c.discardErr = exp.discardErr
	return nil
}

// Columns implements client.Cursor.
func (c *MockCursor) Columns() []string {
	return c.columns
}

// FetchAll implements client.Cursor.
func (c *MockCursor) FetchAll() ([][]any, error) {
	rows := c.rows
	c.rows = nil
	if rows == nil && c.columns != nil {
		rows = [][]any{}
	}
	return rows, nil
}

// Discard implements client.Cursor. It is recorded as a "Discard" call.
func (c *MockCursor) Discard() error {
	c.conn.mu.Lock()
	defer c.conn.mu.Unlock()
	c.conn.calls = append(c.conn.calls, Call{Method: "Discard"})

	err := c.discardErr
	c.columns, c.rows, c.discardErr = nil, nil, nil
	return err
}

// Close implements client.Cursor.
func (c *MockCursor) Close() error {
	c.conn.mu.Lock()
	defer c.conn.mu.Unlock()
	c.conn.calls = append(c.conn.calls, Call{Method: "CloseCursor"})
	c.closed = true
	return nil
}

// MockError creates an error shaped like a driver error.
func MockError(code, message string) error {
	return fmt.Errorf("ERROR: %s (SQLSTATE %s)", message, code)
}
