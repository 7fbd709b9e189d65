package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/schema"
)

// Client is the main entry point: it owns one database session and runs
// queries, bulk loads and catalog lookups against it.
type Client struct {
	opts      ClientOptions
	stateMgr  *StateManager
	logger    Logger
	debugMode atomic.Bool
	hooks     *HookChain
	dialect   schema.Dialect

	mu     sync.Mutex
	conn   Connection
	exec   *Executor
	loader *BulkLoader
}

// NewClient creates a new client with the given options.
// If opts is nil, default options are used.
func NewClient(opts *ClientOptions) *Client {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(opts.LogLevel, nil)
	}

	dialect, err := opts.resolveDialect()
	if err != nil {
		logger.Warn("unknown dialect, falling back to postgres",
			String("driver", opts.DriverName), Error("error", err))
		dialect = schema.Postgres
	}

	client := &Client{
		opts:     *opts,
		stateMgr: NewStateManager(),
		logger:   logger,
		hooks:    NewHookChain(logger),
		dialect:  dialect,
	}
	if opts.DebugMode {
		client.debugMode.Store(true)
		client.hooks.Register(&debugHook{client: client})
	}

	// Wire up lifecycle callbacks if provided
	if opts.OnConnected != nil || opts.OnDisconnected != nil || opts.OnReconnecting != nil {
		client.stateMgr.OnStateChange(func(transition StateTransition) {
			switch transition.To {
			case CONNECTED:
				if opts.OnConnected != nil {
					opts.OnConnected(transition)
				}
			case DISCONNECTED:
				if transition.From != DISCONNECTED && opts.OnDisconnected != nil {
					opts.OnDisconnected(transition)
				}
			case CONNECTING:
				if transition.From == CONNECTED && opts.OnReconnecting != nil {
					opts.OnReconnecting(transition)
				}
			}
		})
	}

	return client
}

// Connect opens a database session using the configured driver.
// The DSN format is driver specific; for pgx it is a URL or a libpq
// keyword string (see Config.DSN).
func (c *Client) Connect(ctx context.Context, dsn string) error {
	c.logger.Info("connecting to database", String("driver", c.opts.DriverName), String("dsn", dsn))

	err := c.stateMgr.TransitionTo(CONNECTING, nil, map[string]interface{}{
		"reason":  "user_initiated",
		"driver":  c.opts.DriverName,
		"attempt": 1,
	})
	if err != nil {
		return err
	}

	conn, err := OpenSQLConnection(ctx, c.opts.DriverName, dsn, c.opts, c.logger)
	if err != nil {
		c.logger.Error("connection failed", Error("error", err))
		c.stateMgr.TransitionTo(DISCONNECTED, err, map[string]interface{}{
			"reason": "error",
		})
		return err
	}

	conn.OnReconnecting = func(attempt int) {
		if attempt == 1 {
			c.stateMgr.TransitionTo(CONNECTING, nil, map[string]interface{}{
				"reason":  "reconnect",
				"attempt": attempt,
			})
		}
	}
	conn.OnReconnected = func(attempts int, err error) {
		if err != nil {
			c.stateMgr.TransitionTo(DISCONNECTED, err, map[string]interface{}{
				"reason":   "reconnect_failed",
				"attempts": attempts,
			})
			return
		}
		c.stateMgr.TransitionTo(CONNECTED, nil, map[string]interface{}{
			"reason":  "reconnect",
			"attempt": attempts,
		})
	}

	c.bind(conn)
	c.logger.Info("connected", String("dialect", c.dialect.Name()))
	return c.stateMgr.TransitionTo(CONNECTED, nil, map[string]interface{}{
		"reason": "user_initiated",
		"driver": c.opts.DriverName,
	})
}

// Attach uses an already established Connection instead of opening one.
func (c *Client) Attach(conn Connection) error {
	if err := c.stateMgr.TransitionTo(CONNECTING, nil, map[string]interface{}{
		"reason": "attached",
	}); err != nil {
		return err
	}
	c.bind(conn)
	return c.stateMgr.TransitionTo(CONNECTED, nil, map[string]interface{}{
		"reason": "attached",
	})
}

func (c *Client) bind(conn Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.conn != conn {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("failed to close previous connection", Error("error", err))
		}
	}
	c.conn = conn
	c.exec = NewExecutor(conn, c.opts.AutoCommit, c.logger).WithHooks(c.hooks)
	c.loader = NewBulkLoader(c.exec, c.dialect, c.opts.BatchSize, c.logger)
}

// Disconnect closes the session. An open transaction is rolled back.
func (c *Client) Disconnect(ctx context.Context) error {
	c.logger.Info("disconnecting from database")

	if c.stateMgr.GetState() != CONNECTED {
		return ErrInvalidState("Disconnect", CONNECTED, c.stateMgr.GetState())
	}

	err := c.stateMgr.TransitionTo(DISCONNECTING, nil, map[string]interface{}{
		"reason": "user_initiated",
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	var closeErr error
	if c.conn != nil {
		closeErr = c.conn.Close()
		c.conn = nil
		c.exec = nil
		c.loader = nil
	}
	c.mu.Unlock()

	if closeErr != nil {
		c.logger.Error("error during disconnect", Error("error", closeErr))
	} else {
		c.logger.Info("disconnected successfully")
	}

	c.stateMgr.TransitionTo(DISCONNECTED, closeErr, map[string]interface{}{
		"reason": "user_initiated",
	})
	return closeErr
}

// Query runs SQL text, possibly several ';'-separated statements, as one
// transaction. It returns the last statement's result set, or nil when
// that statement produced none.
func (c *Client) Query(ctx context.Context, text string) (*dataset.ResultTable, error) {
	exec, err := c.executor("Query")
	if err != nil {
		return nil, err
	}
	return exec.Execute(ctx, text)
}

// Insert bulk loads frame into table. See BulkLoader.Load.
func (c *Client) Insert(ctx context.Context, frame *dataset.Frame, table string, overwrite bool) error {
	if c.stateMgr.GetState() != CONNECTED {
		return ErrInvalidState("Insert", CONNECTED, c.stateMgr.GetState())
	}
	c.mu.Lock()
	loader := c.loader
	c.mu.Unlock()
	return loader.Load(ctx, frame, table, overwrite)
}

// Commit commits the open transaction. Needed only with auto-commit off.
func (c *Client) Commit(ctx context.Context) error {
	exec, err := c.executor("Commit")
	if err != nil {
		return err
	}
	return exec.Commit(ctx)
}

// Rollback rolls back the open transaction.
func (c *Client) Rollback(ctx context.Context) error {
	exec, err := c.executor("Rollback")
	if err != nil {
		return err
	}
	return exec.Rollback(ctx)
}

// SetAutoCommit switches auto-commit for later Query and Insert calls.
func (c *Client) SetAutoCommit(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.AutoCommit = on
	if c.exec != nil {
		c.exec.SetAutoCommit(on)
	}
}

// AutoCommit reports whether auto-commit is on.
func (c *Client) AutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.AutoCommit
}

// Schemas returns a catalog manager that runs through this client.
func (c *Client) Schemas() *schema.Manager {
	return schema.NewManager(querierFunc(c.Query), c.dialect)
}

// Dialect returns the SQL dialect in use.
func (c *Client) Dialect() schema.Dialect {
	return c.dialect
}

func (c *Client) executor(operation string) (*Executor, error) {
	if state := c.stateMgr.GetState(); state != CONNECTED {
		return nil, ErrInvalidState(operation, CONNECTED, state)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exec, nil
}

// RegisterHook adds a hook to the client's hook chain.
// If a hook with the same name already exists, it is replaced.
func (c *Client) RegisterHook(hook Hook) {
	c.hooks.Register(hook)
}

// UnregisterHook removes a hook by name.
func (c *Client) UnregisterHook(name string) bool {
	return c.hooks.Unregister(name)
}

// GetHooks returns the names of all registered hooks in execution order.
func (c *Client) GetHooks() []string {
	return c.hooks.Names()
}

// GetState returns the current connection state.
func (c *Client) GetState() ConnectionState {
	return c.stateMgr.GetState()
}

// GetLastTransition returns the most recent state transition.
func (c *Client) GetLastTransition() StateTransition {
	return c.stateMgr.GetLastTransition()
}

// OnStateChange registers a handler to be called on state transitions.
func (c *Client) OnStateChange(handler StateChangeHandler) {
	c.stateMgr.OnStateChange(handler)
}

// GetVersion returns the build version of the client.
func (c *Client) GetVersion() string {
	return Version
}

// querierFunc adapts a query function to schema.Querier.
type querierFunc func(ctx context.Context, text string) (*dataset.ResultTable, error)

func (f querierFunc) Execute(ctx context.Context, text string) (*dataset.ResultTable, error) {
	return f(ctx, text)
}
