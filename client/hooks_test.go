package client

import (
	"context"
	"errors"
	"testing"

	"github.com/cespare/xxhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHook records calls and can abort, fail or rewrite the command.
type testHook struct {
	name        string
	beforeCalls int
	afterCalls  int
	beforeError error
	afterError  error
	modifyCmd   string
	seen        *HookContext
	order       *[]string
}

func (h *testHook) Name() string {
	return h.name
}

func (h *testHook) Before(ctx context.Context, hookCtx *HookContext) error {
	h.beforeCalls++
	if h.order != nil {
		*h.order = append(*h.order, h.name+".before")
	}
	if h.modifyCmd != "" {
		hookCtx.Command = h.modifyCmd
	}
	return h.beforeError
}

func (h *testHook) After(ctx context.Context, hookCtx *HookContext) error {
	h.afterCalls++
	h.seen = hookCtx
	if h.order != nil {
		*h.order = append(*h.order, h.name+".after")
	}
	return h.afterError
}

func TestHookRegistration(t *testing.T) {
	client := NewClient(&ClientOptions{Logger: NewNoopLogger()})

	client.RegisterHook(&testHook{name: "hook1"})
	client.RegisterHook(&testHook{name: "hook2"})
	assert.Equal(t, []string{"hook1", "hook2"}, client.GetHooks())

	// Same name replaces in place.
	client.RegisterHook(&testHook{name: "hook1"})
	assert.Equal(t, []string{"hook1", "hook2"}, client.GetHooks())

	assert.True(t, client.UnregisterHook("hook1"))
	assert.False(t, client.UnregisterHook("hook1"))
	assert.Equal(t, []string{"hook2"}, client.GetHooks())
}

func TestHookExecutionOrder(t *testing.T) {
	var order []string
	chain := NewHookChain(nil)
	chain.Register(&testHook{name: "a", order: &order})
	chain.Register(&testHook{name: "b", order: &order})

	exec := NewExecutor(newStubConn(), true, nil).WithHooks(chain)
	_, err := exec.Execute(context.Background(), "CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.before", "b.before", "a.after", "b.after"}, order)
}

func TestHookBeforeAbortsExecution(t *testing.T) {
	conn := newStubConn()
	abort := errors.New("blocked by policy")
	hook := &testHook{name: "guard", beforeError: abort}

	exec := NewExecutor(conn, true, nil).WithHooks(NewHookChain(nil))
	exec.hooks.Register(hook)

	_, err := exec.Execute(context.Background(), "DROP TABLE t")
	assert.Equal(t, abort, err)
	assert.Empty(t, conn.executed)
	assert.Equal(t, 0, hook.afterCalls)
}

func TestHookModifiesCommand(t *testing.T) {
	conn := newStubConn().returns("SELECT 2", []string{"n"}, []any{int64(2)})
	hook := &testHook{name: "rewrite", modifyCmd: "SELECT 2"}

	exec := NewExecutor(conn, true, nil).WithHooks(NewHookChain(nil))
	exec.hooks.Register(hook)

	res, err := exec.Execute(context.Background(), "SELECT 1; SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 2"}, conn.executed)
	assert.Equal(t, int64(2), res.Cell(0, 0))

	// Derived fields follow the rewritten command.
	assert.Equal(t, 1, hook.seen.StatementCount)
	assert.Equal(t, xxhash.Sum64String("SELECT 2"), hook.seen.Fingerprint)
}

func TestHookAfterSeesResultAndError(t *testing.T) {
	cause := errors.New("division by zero")
	conn := newStubConn().
		returns("SELECT 1 AS n", []string{"n"}, []any{int64(1)}).
		fails("SELECT 1/0", cause)
	hook := &testHook{name: "observer"}

	exec := NewExecutor(conn, true, nil).WithHooks(NewHookChain(nil))
	exec.hooks.Register(hook)
	ctx := context.Background()

	_, err := exec.Execute(ctx, "SELECT 1 AS n")
	require.NoError(t, err)
	require.NotNil(t, hook.seen.Result)
	assert.Equal(t, "query", hook.seen.CommandType)
	assert.NotEmpty(t, hook.seen.TraceID)
	assert.Nil(t, hook.seen.Error)

	_, err = exec.Execute(ctx, "SELECT 1/0")
	require.Error(t, err)
	assert.ErrorIs(t, hook.seen.Error, cause)
	assert.Nil(t, hook.seen.Result)
}

func TestHookAfterErrorReplacesResult(t *testing.T) {
	replaced := errors.New("result rejected")
	exec := NewExecutor(newStubConn(), true, nil).WithHooks(NewHookChain(nil))
	exec.hooks.Register(&testHook{name: "first", afterError: errors.New("first")})
	exec.hooks.Register(&testHook{name: "last", afterError: replaced})

	res, err := exec.Execute(context.Background(), "CREATE TABLE t (x INTEGER)")
	assert.Nil(t, res)
	assert.Equal(t, replaced, err)
}

func TestNilHookChain(t *testing.T) {
	exec := NewExecutor(newStubConn(), true, nil)
	_, err := exec.Execute(context.Background(), "CREATE TABLE t (x INTEGER)")
	assert.NoError(t, err)
}

func TestInferCommandType(t *testing.T) {
	tests := []struct {
		command  string
		expected string
	}{
		{"SELECT * FROM users", "query"},
		{"  with t as (select 1) select * from t", "query"},
		{"(SELECT 1)", "query"},
		{"INSERT INTO t VALUES (1)", "mutation"},
		{"delete from t", "mutation"},
		{"BEGIN", "transaction"},
		{"CREATE TABLE t (x INTEGER)", "schema"},
		{"TRUNCATE TABLE t", "schema"},
		{"VACUUM", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, inferCommandType(tt.command), tt.command)
	}
}
