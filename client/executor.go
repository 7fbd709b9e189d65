package client

import (
	"context"
	"errors"
	"time"

	"github.com/dan-strohschein/pgtab/dataset"
)

// Executor runs SQL text as one transaction on a Connection.
//
// Every call opens its own cursor and closes it on all exit paths.
// With auto-commit the transaction is committed after the last
// statement succeeds; without it the caller must Commit or Rollback.
// A failing statement rolls the whole transaction back.
type Executor struct {
	conn       Connection
	autoCommit bool
	logger     Logger
	hooks      *HookChain
}

// NewExecutor creates an executor over conn.
func NewExecutor(conn Connection, autoCommit bool, logger Logger) *Executor {
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &Executor{
		conn:       conn,
		autoCommit: autoCommit,
		logger:     logger.WithFields(String("component", "executor")),
	}
}

// WithHooks attaches a hook chain run around every Execute call.
func (e *Executor) WithHooks(hooks *HookChain) *Executor {
	e.hooks = hooks
	return e
}

// AutoCommit reports whether the executor commits after each call.
func (e *Executor) AutoCommit() bool {
	return e.autoCommit
}

// SetAutoCommit switches auto-commit on or off for later calls.
func (e *Executor) SetAutoCommit(on bool) {
	e.autoCommit = on
}

// Execute splits text into statements and runs them in order inside one
// transaction. Only the last statement's result set is fetched; it is
// returned as a table, or nil when that statement produced none. Earlier
// result sets are drained so their statements run and report errors.
// Empty text returns nil without touching the connection.
func (e *Executor) Execute(ctx context.Context, text string) (*dataset.ResultTable, error) {
	hookCtx := newHookContext(text)
	if err := e.hooks.before(ctx, hookCtx); err != nil {
		return nil, err
	}

	result, err := e.execute(ctx, hookCtx.TraceID, SplitStatements(hookCtx.Command))

	hookCtx.Result = result
	hookCtx.Error = err
	hookCtx.Duration = time.Since(hookCtx.StartTime)
	if hookErr := e.hooks.after(ctx, hookCtx); hookErr != nil {
		// Hook error replaces original error
		err = hookErr
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

// Commit commits the open transaction, if any.
func (e *Executor) Commit(ctx context.Context) error {
	if err := e.conn.Commit(ctx); err != nil {
		return ErrCommitFailed(err)
	}
	return nil
}

// Rollback rolls back the open transaction, if any.
func (e *Executor) Rollback(ctx context.Context) error {
	if err := e.conn.Rollback(ctx); err != nil {
		return ErrRollbackFailed(err, nil)
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, traceID string, stmts []string) (*dataset.ResultTable, error) {
	if len(stmts) == 0 {
		return nil, nil
	}

	log := e.logger.WithFields(String("trace_id", traceID))

	cur, err := e.conn.OpenCursor(ctx)
	if err != nil {
		log.Error("failed to open cursor", Error("error", err))
		var connErr *ConnectionError
		if errors.As(err, &connErr) {
			return nil, err
		}
		return nil, ErrCursorFailed(err)
	}
	defer cur.Close()

	last := len(stmts)
	for i, stmt := range stmts {
		index := i + 1
		log.Debug("executing statement", Int("index", index), Int("total", last))

		if err := cur.Execute(ctx, stmt); err != nil {
			return nil, e.fail(ctx, log, index, stmt, err)
		}
		// Earlier result sets are read to the end but not kept.
		if index < last && cur.Columns() != nil {
			if err := cur.Discard(); err != nil {
				return nil, e.fail(ctx, log, index, stmt, err)
			}
		}
	}

	var result *dataset.ResultTable
	if cols := cur.Columns(); cols != nil {
		rows, err := cur.FetchAll()
		if err != nil {
			return nil, e.fail(ctx, log, last, stmts[last-1], err)
		}
		result = dataset.NewResultTable(cols, rows)
	}

	if e.autoCommit {
		if err := e.conn.Commit(ctx); err != nil {
			log.Error("commit failed", Error("error", err))
			return nil, ErrCommitFailed(err)
		}
	}

	return result, nil
}

// fail rolls back after a statement error. A rollback failure supersedes
// the statement error.
func (e *Executor) fail(ctx context.Context, log Logger, index int, stmt string, cause error) error {
	log.Warn("statement failed, rolling back", Int("index", index), Error("error", cause))

	if rbErr := e.conn.Rollback(ctx); rbErr != nil {
		log.Error("rollback failed", Error("error", rbErr), Error("original_error", cause))
		return ErrRollbackFailed(rbErr, cause)
	}
	return ErrStatementFailed(index, stmt, cause)
}
