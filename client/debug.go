package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// debugPreviewRows caps how many result rows the debug hook logs.
const debugPreviewRows = 5

// EnableDebugMode enables debug mode with verbose logging and stack traces.
func (c *Client) EnableDebugMode() {
	c.debugMode.Store(true)
	c.hooks.Register(&debugHook{client: c})
	c.logger.Info("debug mode enabled")
}

// DisableDebugMode disables debug mode.
func (c *Client) DisableDebugMode() {
	c.debugMode.Store(false)
	c.hooks.Unregister(debugHookName)
	c.logger.Info("debug mode disabled")
}

// IsDebugMode returns whether debug mode is currently enabled.
func (c *Client) IsDebugMode() bool {
	return c.debugMode.Load()
}

// FormatError formats err according to the client's debug mode.
func (c *Client) FormatError(err error) string {
	return FormatError(err, c.IsDebugMode())
}

// GetDebugInfo returns a comprehensive snapshot of client state for debugging.
func (c *Client) GetDebugInfo() map[string]interface{} {
	info := map[string]interface{}{
		"version":    Version,
		"state":      c.GetState().String(),
		"inState":    c.stateMgr.InState().String(),
		"debugMode":  c.IsDebugMode(),
		"autoCommit": c.AutoCommit(),
		"dialect":    c.dialect.Name(),
		"hooks":      c.GetHooks(),
	}

	c.mu.Lock()
	if sc, ok := c.conn.(*SQLConnection); ok {
		info["connection"] = map[string]interface{}{
			"driver":        sc.driver,
			"inTransaction": sc.InTransaction(),
		}
	} else if c.conn != nil {
		info["connection"] = map[string]interface{}{
			"type": fmt.Sprintf("%T", c.conn),
		}
	}
	c.mu.Unlock()

	info["options"] = map[string]interface{}{
		"driverName":               c.opts.DriverName,
		"batchSize":                c.opts.BatchSize,
		"maxReconnectAttempts":     c.opts.MaxReconnectAttempts,
		"reconnectInitialInterval": c.opts.ReconnectInitialInterval.String(),
		"healthCheckInterval":      c.opts.HealthCheckInterval.String(),
	}

	lastTransition := c.GetLastTransition()
	info["lastTransition"] = map[string]interface{}{
		"from":      lastTransition.From.String(),
		"to":        lastTransition.To.String(),
		"timestamp": lastTransition.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		"duration":  lastTransition.Duration.String(),
	}

	return info
}

// DumpDebugInfoJSON returns debug info as formatted JSON string.
func (c *Client) DumpDebugInfoJSON() string {
	info := c.GetDebugInfo()
	bytes, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal debug info: %s"}`, err.Error())
	}
	return string(bytes)
}

const debugHookName = "debug"

// debugHook logs full SQL text, a result preview and formatted errors
// while debug mode is on.
type debugHook struct {
	client *Client
}

func (h *debugHook) Name() string { return debugHookName }

func (h *debugHook) Before(ctx context.Context, hookCtx *HookContext) error {
	return nil
}

func (h *debugHook) After(ctx context.Context, hookCtx *HookContext) error {
	if !h.client.IsDebugMode() {
		return nil
	}

	fields := []Field{
		String("trace_id", hookCtx.TraceID),
		String("command", hookCtx.Command),
		String("commandBytes", fmt.Sprintf("%q", hookCtx.Command)),
		Int("statements", hookCtx.StatementCount),
		Int64("durationNs", hookCtx.Duration.Nanoseconds()),
	}

	if hookCtx.Error != nil {
		fields = append(fields, String("error", FormatError(hookCtx.Error, true)))
	}

	if res := hookCtx.Result; res != nil {
		fields = append(fields,
			String("columns", strings.Join(res.Columns, ",")),
			Int("rows", res.NumRows()))
		preview := res.Rows
		if len(preview) > debugPreviewRows {
			preview = preview[:debugPreviewRows]
		}
		if b, err := json.Marshal(preview); err == nil {
			fields = append(fields, String("rowsPreview", string(b)))
		}
	}

	h.client.logger.Debug("sql execution detail", fields...)
	return nil
}
