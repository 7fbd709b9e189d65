package client

import (
	"context"
	"errors"
	"strings"

	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/mapper"
	"github.com/dan-strohschein/pgtab/schema"
)

// BulkLoader writes a Frame into a table, creating or resetting the table
// first and then inserting rows with one multi-row INSERT per batch.
//
// Each batch is its own transaction when auto-commit is on: a failure in
// batch k leaves batches 1..k-1 committed and rolls back batch k only.
type BulkLoader struct {
	exec      *Executor
	dialect   schema.Dialect
	batchSize int
	logger    Logger
	mapper    *mapper.ResponseMapper
}

// NewBulkLoader creates a loader. A non-positive batchSize means
// dataset.DefaultBatchSize and a nil dialect means Postgres.
func NewBulkLoader(exec *Executor, dialect schema.Dialect, batchSize int, logger Logger) *BulkLoader {
	if dialect == nil {
		dialect = schema.Postgres
	}
	if batchSize <= 0 {
		batchSize = dataset.DefaultBatchSize
	}
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &BulkLoader{
		exec:      exec,
		dialect:   dialect,
		batchSize: batchSize,
		logger:    logger.WithFields(String("component", "loader")),
		mapper:    mapper.NewResponseMapper(),
	}
}

// Load writes every row of frame into table.
//
// If the table exists and overwrite is set it is dropped and recreated;
// if it exists otherwise it is truncated; if it is missing it is created
// from the frame's column types. An empty frame is a no-op.
func (l *BulkLoader) Load(ctx context.Context, frame *dataset.Frame, table string, overwrite bool) error {
	if frame.NumRows() == 0 {
		return nil
	}

	name, err := schema.ParseTableName(table, l.dialect.DefaultSchema())
	if err != nil {
		return ErrInvalidTableName(table, err)
	}
	if len(frame.Columns()) == 0 {
		return ErrInvalidFrame("frame has rows but no columns")
	}

	log := l.logger.WithFields(String("table", name.String()))

	res, err := l.exec.Execute(ctx, l.dialect.TableExistsQuery(name))
	if err != nil {
		return err
	}
	exists, err := l.mapper.ToBool(res.Cell(0, 0))
	if err != nil {
		return err
	}

	prepare := l.prepareStatements(name, frame, exists, overwrite)
	log.Debug("preparing table", Bool("exists", exists), Bool("overwrite", overwrite))
	if _, err := l.exec.Execute(ctx, prepare); err != nil {
		return err
	}

	insertPrefix := "INSERT INTO " + name.Quoted() + " (" + schema.QuoteIdents(frame.ColumnNames()) + ") VALUES "
	plan := dataset.PlanBatches(frame.NumRows(), l.batchSize)

	for k, w := range plan.Windows {
		stmt := insertPrefix + renderValues(frame.Slice(w))
		log.Debug("inserting batch",
			Int("batch", k+1),
			Int("batches", len(plan.Windows)),
			Int("rows", w.Len()))

		if _, err := l.exec.Execute(ctx, stmt); err != nil {
			var execErr *ExecutionError
			if errors.As(err, &execErr) {
				if execErr.Details == nil {
					execErr.Details = map[string]interface{}{}
				}
				execErr.Details["batch"] = k + 1
				execErr.Details["row_start"] = w.Start
				execErr.Details["row_end"] = w.End
			}
			log.Warn("batch failed", Int("batch", k+1), Int("committed_rows", w.Start), Error("error", err))
			return err
		}
	}

	log.Info("load complete", Int("rows", frame.NumRows()), Int("batches", len(plan.Windows)))
	return nil
}

// prepareStatements returns the DDL that makes the table ready for inserts.
func (l *BulkLoader) prepareStatements(name schema.TableName, frame *dataset.Frame, exists, overwrite bool) string {
	if exists && !overwrite {
		return l.dialect.TruncateStatement(name)
	}

	var stmts []string
	if l.dialect.SupportsSchemas() && name.Schema != l.dialect.DefaultSchema() {
		stmts = append(stmts, l.dialect.CreateSchemaStatement(name.Schema))
	}
	if exists {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+name.Quoted())
	}
	stmts = append(stmts, createTableStatement(name, mapper.Describe(frame)))
	return strings.Join(stmts, ";\n")
}

func createTableStatement(name schema.TableName, cols []dataset.ColumnDescriptor) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = schema.QuoteIdent(c.Name) + " " + mapper.SQLType(c.Type)
	}
	return "CREATE TABLE " + name.Quoted() + " (" + strings.Join(defs, ", ") + ")"
}

func renderValues(rows [][]dataset.Value) string {
	tuples := make([]string, len(rows))
	for i, row := range rows {
		tuples[i] = mapper.RenderRow(row)
	}
	return strings.Join(tuples, ", ")
}
