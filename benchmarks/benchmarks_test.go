package benchmarks

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/dan-strohschein/pgtab/client"
	"github.com/dan-strohschein/pgtab/dataset"
	"github.com/dan-strohschein/pgtab/mapper"
	"github.com/dan-strohschein/pgtab/testutil"
)

// BenchmarkConnectionEstablishment measures connection setup/teardown time
func BenchmarkConnectionEstablishment(b *testing.B) {
	b.ReportAllocs()
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		opts := client.DefaultOptions()
		opts.DriverName = "sqlite3"
		opts.Logger = client.NewNoopLogger()
		c := client.NewClient(&opts)

		if err := c.Connect(ctx, "file:bench?mode=memory"); err != nil {
			b.Fatalf("Failed to connect: %v", err)
		}
		if err := c.Disconnect(ctx); err != nil {
			b.Fatalf("Failed to disconnect: %v", err)
		}
	}
}

// BenchmarkSimpleQuery measures query execution time
func BenchmarkSimpleQuery(b *testing.B) {
	c := testutil.NewSQLiteClient(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := c.Query(ctx, "SELECT 1 AS one, 'x' AS s"); err != nil {
			b.Fatalf("Query failed: %v", err)
		}
	}
}

// BenchmarkBulkLoad measures end-to-end loading at several batch sizes
func BenchmarkBulkLoad(b *testing.B) {
	frame := testutil.BuildEmployees(10_000, testutil.WithNullEvery(10))

	for _, size := range []int{100, 1000, 5000} {
		b.Run(fmt.Sprintf("batch=%d", size), func(b *testing.B) {
			c := testutil.NewSQLiteClient(b, func(o *client.ClientOptions) { o.BatchSize = size })
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if err := c.Insert(ctx, frame, "employees", false); err != nil {
					b.Fatalf("Insert failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkRenderRow measures literal rendering for a typical row
func BenchmarkRenderRow(b *testing.B) {
	row := testutil.BuildEmployees(1).Row(0)
	row[1] = dataset.Text("O'Brien's café")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = mapper.RenderRow(row)
	}
}

// BenchmarkPlanBatches measures window computation for a large frame
func BenchmarkPlanBatches(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = dataset.PlanBatches(1_000_000, 1000)
	}
}

// BenchmarkTypeMapping measures column type inference
func BenchmarkTypeMapping(b *testing.B) {
	frame := testutil.BuildEmployees(0)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, d := range mapper.Describe(frame) {
			_ = mapper.SQLType(d.Type)
		}
	}
}

// BenchmarkReadCSV measures CSV ingestion with type inference
func BenchmarkReadCSV(b *testing.B) {
	var buf bytes.Buffer
	buf.WriteString("id,name,score,active\n")
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&buf, "%d,name %d,%d.5,%t\n", i, i, i, i%2 == 0)
	}
	data := buf.Bytes()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := dataset.ReadCSV(bytes.NewReader(data)); err != nil {
			b.Fatalf("ReadCSV failed: %v", err)
		}
	}
}
