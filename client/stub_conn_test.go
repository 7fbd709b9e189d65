package client

import (
	"context"
	"sync"
)

// stubConn is a minimal in-package Connection. Statements listed in
// results return a result set, those in failures fail, anything else
// succeeds without one.
type stubConn struct {
	mu        sync.Mutex
	results   map[string]stubResult
	failures  map[string]error
	executed  []string
	commits   int
	rollbacks int
	closed    bool
}

type stubResult struct {
	columns []string
	rows    [][]any
}

func newStubConn() *stubConn {
	return &stubConn{
		results:  make(map[string]stubResult),
		failures: make(map[string]error),
	}
}

func (s *stubConn) returns(stmt string, columns []string, rows ...[]any) *stubConn {
	s.results[stmt] = stubResult{columns: columns, rows: rows}
	return s
}

func (s *stubConn) fails(stmt string, err error) *stubConn {
	s.failures[stmt] = err
	return s
}

func (s *stubConn) OpenCursor(ctx context.Context) (Cursor, error) {
	return &stubCursor{conn: s}, nil
}

func (s *stubConn) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return nil
}

func (s *stubConn) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbacks++
	return nil
}

func (s *stubConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type stubCursor struct {
	conn *stubConn
	last *stubResult
}

func (c *stubCursor) Execute(ctx context.Context, stmt string) error {
	s := c.conn
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executed = append(s.executed, stmt)
	c.last = nil
	if err, ok := s.failures[stmt]; ok {
		return err
	}
	if res, ok := s.results[stmt]; ok {
		c.last = &res
	}
	return nil
}

func (c *stubCursor) Columns() []string {
	if c.last == nil {
		return nil
	}
	return c.last.columns
}

func (c *stubCursor) FetchAll() ([][]any, error) {
	if c.last == nil {
		return nil, nil
	}
	return c.last.rows, nil
}

func (c *stubCursor) Discard() error {
	c.last = nil
	return nil
}

func (c *stubCursor) Close() error { return nil }
