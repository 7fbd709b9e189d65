package client

import (
	"context"
	"sync"
	"sync/atomic"
)

// LoggingHook logs execution with configurable detail levels.
type LoggingHook struct {
	logger       Logger
	logCommands  bool // Log raw SQL text
	logResults   bool // Log result shape
	logDurations bool // Log execution times
}

// NewLoggingHook creates a new logging hook with the given logger.
func NewLoggingHook(logger Logger, logCommands, logResults, logDurations bool) *LoggingHook {
	return &LoggingHook{
		logger:       logger,
		logCommands:  logCommands,
		logResults:   logResults,
		logDurations: logDurations,
	}
}

func (h *LoggingHook) Name() string {
	return "logging"
}

func (h *LoggingHook) Before(ctx context.Context, hookCtx *HookContext) error {
	if h.logCommands {
		h.logger.Debug("executing sql",
			String("command", hookCtx.Command),
			String("type", hookCtx.CommandType),
			Int("statements", hookCtx.StatementCount),
			String("trace_id", hookCtx.TraceID))
	}
	return nil
}

func (h *LoggingHook) After(ctx context.Context, hookCtx *HookContext) error {
	fields := []Field{
		String("command_type", hookCtx.CommandType),
		String("trace_id", hookCtx.TraceID),
	}

	if h.logDurations {
		fields = append(fields, Duration("duration", hookCtx.Duration))
	}

	if hookCtx.Error != nil {
		fields = append(fields, Error("error", hookCtx.Error))
		h.logger.Error("sql failed", fields...)
		return nil
	}

	if h.logResults && hookCtx.Result != nil {
		fields = append(fields,
			Int("columns", len(hookCtx.Result.Columns)),
			Int("rows", hookCtx.Result.NumRows()))
	}
	h.logger.Debug("sql completed", fields...)
	return nil
}

// MetricsHook collects execution metrics using atomic counters.
// Per-statement counts are keyed by the SQL text fingerprint.
type MetricsHook struct {
	TotalCommands   atomic.Uint64
	TotalQueries    atomic.Uint64
	TotalMutations  atomic.Uint64
	TotalErrors     atomic.Uint64
	TotalRows       atomic.Uint64
	TotalDurationNs atomic.Uint64

	mu           sync.Mutex
	fingerprints map[uint64]uint64
}

// NewMetricsHook creates a new metrics collection hook.
func NewMetricsHook() *MetricsHook {
	return &MetricsHook{fingerprints: make(map[uint64]uint64)}
}

func (h *MetricsHook) Name() string {
	return "metrics"
}

func (h *MetricsHook) Before(ctx context.Context, hookCtx *HookContext) error {
	return nil
}

func (h *MetricsHook) After(ctx context.Context, hookCtx *HookContext) error {
	h.TotalCommands.Add(1)
	h.TotalDurationNs.Add(uint64(hookCtx.Duration.Nanoseconds()))

	switch hookCtx.CommandType {
	case "query":
		h.TotalQueries.Add(1)
	case "mutation":
		h.TotalMutations.Add(1)
	}

	if hookCtx.Error != nil {
		h.TotalErrors.Add(1)
	}
	if hookCtx.Result != nil {
		h.TotalRows.Add(uint64(hookCtx.Result.NumRows()))
	}

	h.mu.Lock()
	h.fingerprints[hookCtx.Fingerprint]++
	h.mu.Unlock()

	return nil
}

// Executions returns how many times SQL text with the given fingerprint ran.
func (h *MetricsHook) Executions(fingerprint uint64) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fingerprints[fingerprint]
}

// GetStats returns current metrics as a map.
func (h *MetricsHook) GetStats() map[string]interface{} {
	totalCmds := h.TotalCommands.Load()
	totalDur := h.TotalDurationNs.Load()
	avgDuration := int64(0)
	if totalCmds > 0 {
		avgDuration = int64(totalDur / totalCmds)
	}

	h.mu.Lock()
	distinct := len(h.fingerprints)
	h.mu.Unlock()

	return map[string]interface{}{
		"total_commands":    totalCmds,
		"total_queries":     h.TotalQueries.Load(),
		"total_mutations":   h.TotalMutations.Load(),
		"total_errors":      h.TotalErrors.Load(),
		"total_rows":        h.TotalRows.Load(),
		"distinct_commands": distinct,
		"total_duration_ns": totalDur,
		"avg_duration_ns":   avgDuration,
		"avg_duration_ms":   float64(avgDuration) / 1_000_000,
		"total_duration_ms": float64(totalDur) / 1_000_000,
	}
}

// Reset clears all metrics.
func (h *MetricsHook) Reset() {
	h.TotalCommands.Store(0)
	h.TotalQueries.Store(0)
	h.TotalMutations.Store(0)
	h.TotalErrors.Store(0)
	h.TotalRows.Store(0)
	h.TotalDurationNs.Store(0)

	h.mu.Lock()
	h.fingerprints = make(map[uint64]uint64)
	h.mu.Unlock()
}
