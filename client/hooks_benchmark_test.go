package client

import (
	"context"
	"testing"
)

// noopHook is a minimal hook that does nothing (for baseline benchmarking).
type noopHook struct {
	name string
}

func (h *noopHook) Name() string {
	return h.name
}

func (h *noopHook) Before(ctx context.Context, hookCtx *HookContext) error {
	return nil
}

func (h *noopHook) After(ctx context.Context, hookCtx *HookContext) error {
	return nil
}

func benchmarkExecute(b *testing.B, hooks ...Hook) {
	conn := newStubConn().returns("SELECT id FROM users", []string{"id"}, []any{int64(1)})
	chain := NewHookChain(nil)
	for _, h := range hooks {
		chain.Register(h)
	}
	exec := NewExecutor(conn, true, nil).WithHooks(chain)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = exec.Execute(ctx, "SELECT id FROM users")
	}
}

// BenchmarkExecute_NoHooks establishes baseline performance without hooks.
func BenchmarkExecute_NoHooks(b *testing.B) {
	benchmarkExecute(b)
}

func BenchmarkExecute_3NoopHooks(b *testing.B) {
	benchmarkExecute(b, &noopHook{name: "a"}, &noopHook{name: "b"}, &noopHook{name: "c"})
}

func BenchmarkExecute_BuiltinHooks(b *testing.B) {
	benchmarkExecute(b, NewLoggingHook(NewNoopLogger(), true, true, true), NewMetricsHook())
}

func BenchmarkNewHookContext(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = newHookContext("SELECT * FROM users WHERE id = 1; UPDATE users SET seen = TRUE")
	}
}

func BenchmarkInferCommandType(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = inferCommandType("  select * from users")
	}
}
