package client

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/dan-strohschein/pgtab/mapper"
)

// Connection is the database session the executor drives.
// Statements run inside an implicit transaction that stays open until
// Commit or Rollback.
type Connection interface {
	// OpenCursor returns a cursor bound to the current transaction,
	// beginning one if none is open.
	OpenCursor(ctx context.Context) (Cursor, error)

	// Commit commits the open transaction. It is a no-op when none is open.
	Commit(ctx context.Context) error

	// Rollback rolls back the open transaction. It is a no-op when none is open.
	Rollback(ctx context.Context) error

	// Close releases the session.
	Close() error
}

// Cursor executes one statement at a time and exposes the last result set.
type Cursor interface {
	// Execute runs a single statement. Statements without a result set
	// are driven to completion before Execute returns.
	Execute(ctx context.Context, stmt string) error

	// Columns describes the result set of the last statement, or nil when
	// it produced none.
	Columns() []string

	// FetchAll reads every remaining row of the last result set.
	FetchAll() ([][]any, error)

	// Discard reads the last result set to completion without keeping
	// the rows. Drivers that execute lazily report statement errors here.
	Discard() error

	// Close releases the cursor and any unread result set.
	Close() error
}

var errConnectionClosed = errors.New("connection is closed")

// SQLConnection implements Connection over database/sql with a single
// underlying session. A closed or unhealthy handle is reopened lazily
// with exponential backoff, but never while a transaction is open.
type SQLConnection struct {
	driver string
	dsn    string
	opts   ClientOptions
	logger Logger
	mapper *mapper.ResponseMapper

	mu       sync.Mutex
	db       *sql.DB
	tx       *sql.Tx
	rows     *sql.Rows
	lastUsed time.Time

	// OnReconnecting is called before each reopen attempt (1-based).
	OnReconnecting func(attempt int)
	// OnReconnected is called once reopening finished, with the final error.
	OnReconnected func(attempts int, err error)
}

// OpenSQLConnection opens and pings a database handle for the driver and DSN.
func OpenSQLConnection(ctx context.Context, driver, dsn string, opts ClientOptions, logger Logger) (*SQLConnection, error) {
	if logger == nil {
		logger = NewNoopLogger()
	}
	c := &SQLConnection{
		driver: driver,
		dsn:    dsn,
		opts:   opts,
		logger: logger.WithFields(String("component", "connection"), String("driver", driver)),
		mapper: mapper.NewResponseMapper(),
	}

	db, err := c.open(ctx)
	if err != nil {
		return nil, ErrConnectFailed(driver, err)
	}
	c.db = db
	c.lastUsed = time.Now()
	return c, nil
}

// NewSQLConnection wraps an already opened handle. Without a DSN the
// handle cannot be reopened once closed.
func NewSQLConnection(db *sql.DB, opts ClientOptions, logger Logger) *SQLConnection {
	if logger == nil {
		logger = NewNoopLogger()
	}
	db.SetMaxOpenConns(1)
	return &SQLConnection{
		driver:   opts.DriverName,
		opts:     opts,
		logger:   logger.WithFields(String("component", "connection")),
		mapper:   mapper.NewResponseMapper(),
		db:       db,
		lastUsed: time.Now(),
	}
}

func (c *SQLConnection) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(c.driver, c.dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenCursor implements Connection.
func (c *SQLConnection) OpenCursor(ctx context.Context) (Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		if err := c.ensureHealthy(ctx); err != nil {
			return nil, err
		}
		// The transaction outlives this call when auto-commit is off.
		tx, err := c.db.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return nil, err
		}
		c.tx = tx
	}
	c.lastUsed = time.Now()
	return &sqlCursor{conn: c}, nil
}

// ensureHealthy reopens the handle if it was closed, or pings it when it has
// been idle longer than HealthCheckInterval. Must be called with c.mu held.
func (c *SQLConnection) ensureHealthy(ctx context.Context) error {
	if c.db != nil {
		if c.opts.HealthCheckInterval <= 0 || time.Since(c.lastUsed) < c.opts.HealthCheckInterval {
			return nil
		}
		err := c.db.PingContext(ctx)
		if err == nil {
			return nil
		}
		c.logger.Warn("idle connection failed health check", Error("error", err))
		c.db.Close()
		c.db = nil
	}

	if c.dsn == "" {
		return &ConnectionError{
			Code:    "E_NO_CONNECTION",
			Type:    "CONNECTION_ERROR",
			Message: "connection is closed and cannot be reopened",
			Cause:   errConnectionClosed,
		}
	}
	return c.reconnect(ctx)
}

func (c *SQLConnection) reconnect(ctx context.Context) error {
	maxAttempts := c.opts.MaxReconnectAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	if c.opts.ReconnectInitialInterval > 0 {
		eb.InitialInterval = c.opts.ReconnectInitialInterval
	}
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxAttempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		c.logger.Info("reconnection attempt", Int("attempt", attempt), Int("maxAttempts", maxAttempts))
		if c.OnReconnecting != nil {
			c.OnReconnecting(attempt)
		}
		db, err := c.open(ctx)
		if err != nil {
			return err
		}
		c.db = db
		return nil
	}, policy)

	if c.OnReconnected != nil {
		c.OnReconnected(attempt, err)
	}
	if err != nil {
		c.logger.Error("reconnection failed after all attempts", Int("attempts", attempt), Error("error", err))
		return ErrReconnectFailed(attempt, err)
	}
	c.logger.Info("reconnection successful", Int("attempts", attempt))
	return nil
}

// Commit implements Connection.
func (c *SQLConnection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return nil
	}
	c.closeRows()
	err := c.tx.Commit()
	c.tx = nil
	return err
}

// Rollback implements Connection.
func (c *SQLConnection) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return nil
	}
	c.closeRows()
	err := c.tx.Rollback()
	c.tx = nil
	return err
}

// Close rolls back any open transaction and closes the handle.
func (c *SQLConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeRows()
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil {
			c.logger.Warn("rollback on close failed", Error("error", err))
		}
		c.tx = nil
	}
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// InTransaction reports whether a transaction is open.
func (c *SQLConnection) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

func (c *SQLConnection) closeRows() {
	if c.rows != nil {
		c.rows.Close()
		c.rows = nil
	}
}

// sqlCursor runs statements on its connection's open transaction.
type sqlCursor struct {
	conn    *SQLConnection
	columns []string
	closed  bool
}

func (cur *sqlCursor) Execute(ctx context.Context, stmt string) error {
	c := cur.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur.closed || c.tx == nil {
		return errConnectionClosed
	}

	c.closeRows()
	cur.columns = nil

	rows, err := c.tx.QueryContext(ctx, stmt)
	if err != nil {
		return err
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return err
	}

	if len(cols) == 0 {
		// Drive statements without a result set to completion.
		for rows.Next() {
		}
		err := rows.Err()
		rows.Close()
		return err
	}

	cur.columns = cols
	c.rows = rows
	return nil
}

func (cur *sqlCursor) Columns() []string {
	return cur.columns
}

func (cur *sqlCursor) FetchAll() ([][]any, error) {
	c := cur.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rows == nil {
		return nil, nil
	}
	defer c.closeRows()

	out := make([][]any, 0)
	for c.rows.Next() {
		cells := make([]any, len(cur.columns))
		ptrs := make([]any, len(cells))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, c.mapper.NormalizeRow(cells))
	}
	if err := c.rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (cur *sqlCursor) Discard() error {
	c := cur.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	cur.columns = nil
	if c.rows == nil {
		return nil
	}
	defer c.closeRows()

	for c.rows.Next() {
	}
	return c.rows.Err()
}

func (cur *sqlCursor) Close() error {
	if cur.closed {
		return nil
	}
	cur.closed = true

	c := cur.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeRows()
	return nil
}
