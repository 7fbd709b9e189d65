package client

import (
	"time"

	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/schema"
)

// ClientOptions configures the client behavior.
type ClientOptions struct {
	// AutoCommit commits after every successful Query or Insert batch.
	// When false, the caller must call Commit or Rollback.
	// Default: true
	AutoCommit bool

	// BatchSize is the number of rows per INSERT statement during bulk loads.
	// Default: 1000
	BatchSize int

	// DriverName is the database/sql driver used by Connect.
	// Default: "pgx"
	DriverName string

	// Dialect selects catalog queries and DDL. If nil it is derived from DriverName.
	Dialect schema.Dialect

	// DebugMode enables verbose error serialization with full cause chains.
	// Default: false
	DebugMode bool

	// MaxReconnectAttempts is the maximum number of reconnection attempts
	// made when the database handle is found closed or unhealthy.
	// Default: 10
	MaxReconnectAttempts int

	// ReconnectInitialInterval is the first backoff delay between attempts.
	// Default: 100ms
	ReconnectInitialInterval time.Duration

	// HealthCheckInterval is how long the handle may sit idle before it is
	// pinged ahead of the next statement.
	// Default: 30s
	HealthCheckInterval time.Duration

	// Logger is the logger implementation to use.
	// If nil, a default logger is used.
	Logger Logger

	// LogLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR).
	// Default: "INFO"
	LogLevel string

	// OnConnected is called when a connection is successfully established.
	OnConnected func(StateTransition)

	// OnDisconnected is called when a connection is lost.
	OnDisconnected func(StateTransition)

	// OnReconnecting is called when automatic reconnection is attempted.
	OnReconnecting func(StateTransition)
}

// DefaultOptions returns ClientOptions with default values.
func DefaultOptions() ClientOptions {
	return ClientOptions{
		AutoCommit:               true,
		BatchSize:                dataset.DefaultBatchSize,
		DriverName:               "pgx",
		DebugMode:                false,
		MaxReconnectAttempts:     10,
		ReconnectInitialInterval: 100 * time.Millisecond,
		HealthCheckInterval:      30 * time.Second,
		LogLevel:                 "INFO",
	}
}

// resolveDialect returns the configured dialect or the one implied by the driver.
func (o ClientOptions) resolveDialect() (schema.Dialect, error) {
	if o.Dialect != nil {
		return o.Dialect, nil
	}
	return schema.DialectByName(o.DriverName)
}
