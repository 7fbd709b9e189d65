package dataset

// DefaultBatchSize is the number of rows per insert window.
const DefaultBatchSize = 1000

// Window is a half-open row range [Start, End).
type Window struct {
	Start int
	End   int
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// BatchPlan partitions a row sequence into contiguous windows.
// Windows never overlap, cover every row exactly once and keep row order.
// Only the last window may be shorter than Size.
type BatchPlan struct {
	Size    int
	Windows []Window
}

// PlanBatches partitions n rows into windows of size rows.
// A non-positive size falls back to DefaultBatchSize.
func PlanBatches(n, size int) BatchPlan {
	if size <= 0 {
		size = DefaultBatchSize
	}
	plan := BatchPlan{Size: size}
	if n <= 0 {
		return plan
	}

	plan.Windows = make([]Window, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		plan.Windows = append(plan.Windows, Window{Start: start, End: end})
	}
	return plan
}

// Partition splits items into consecutive chunks following PlanBatches.
func Partition[T any](items []T, size int) [][]T {
	plan := PlanBatches(len(items), size)
	chunks := make([][]T, len(plan.Windows))
	for i, w := range plan.Windows {
		chunks[i] = items[w.Start:w.End]
	}
	return chunks
}
