package testutil

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/dan-strohschein/pgtab/dataset"
)

// EmployeeColumns is the column layout produced by BuildEmployees.
var EmployeeColumns = []dataset.Column{
	dataset.Col("id", arrow.PrimitiveTypes.Int64),
	dataset.Col("name", arrow.BinaryTypes.String),
	dataset.Col("salary", arrow.PrimitiveTypes.Float64),
	dataset.Col("active", arrow.FixedWidthTypes.Boolean),
	dataset.Col("hired_at", &arrow.TimestampType{Unit: arrow.Microsecond}),
}

// Option modifies factory behavior.
type Option func(*factoryConfig)

type factoryConfig struct {
	nullEvery int
	seed      int64
	start     time.Time
}

// WithNullEvery makes every n-th row carry NULL in its non-key columns.
func WithNullEvery(n int) Option {
	return func(c *factoryConfig) {
		c.nullEvery = n
	}
}

// WithSeed fixes the random source so generated frames are reproducible.
func WithSeed(seed int64) Option {
	return func(c *factoryConfig) {
		c.seed = seed
	}
}

// WithStart sets the hire date of the first row; later rows follow a day apart.
func WithStart(start time.Time) Option {
	return func(c *factoryConfig) {
		c.start = start
	}
}

// BuildEmployees builds a frame of count employee rows.
// Ids are sequential from 1 and rows are deterministic for a given seed.
func BuildEmployees(count int, options ...Option) *dataset.Frame {
	cfg := factoryConfig{
		seed:  1,
		start: time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, opt := range options {
		opt(&cfg)
	}

	rng := rand.New(rand.NewSource(cfg.seed))
	frame := dataset.NewFrame(EmployeeColumns...)
	for i := 0; i < count; i++ {
		id := int64(i + 1)
		if cfg.nullEvery > 0 && (i+1)%cfg.nullEvery == 0 {
			frame.MustAppend(dataset.Int(id), dataset.Null(), dataset.Null(), dataset.Null(), dataset.Null())
			continue
		}
		frame.MustAppend(
			dataset.Int(id),
			dataset.Text(fmt.Sprintf("Employee %d", id)),
			dataset.Float(float64(30000+rng.Intn(70000))+0.5),
			dataset.Bool(rng.Intn(2) == 1),
			dataset.Timestamp(cfg.start.AddDate(0, 0, i)),
		)
	}
	return frame
}

var sequence uint64

// SequenceID generates unique IDs.
func SequenceID() int64 {
	return int64(atomic.AddUint64(&sequence, 1))
}

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// RandomString generates a random string of the specified length.
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rng.Intn(len(charset))]
	}
	return string(b)
}

// QuotedText returns text with embedded single quotes and non-ASCII
// characters. It never contains ';'.
func QuotedText() string {
	return "O'Brien's café, " + RandomString(4)
}
