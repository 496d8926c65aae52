package bulk

// CalculateBatches returns the [start, end) boundaries of each batch for
// totalItems items. A batchSize of 0 or one larger than totalItems yields a
// single batch; zero items yield no batches.
func CalculateBatches(totalItems, batchSize int) [][2]int {
	if totalItems <= 0 {
		return nil
	}
	if batchSize <= 0 || batchSize > totalItems {
		batchSize = totalItems
	}

	totalBatches := calculateTotalBatches(totalItems, batchSize)
	batches := make([][2]int, totalBatches)

	for i := range totalBatches {
		start := i * batchSize
		end := min(start+batchSize, totalItems)
		batches[i] = [2]int{start, end}
	}

	return batches
}

// Partition splits items into contiguous, order-preserving batches.
// The returned slices share the backing array of items but are capped so an
// append on one batch never overwrites the next.
func Partition[T any](items []T, batchSize int) [][]T {
	bounds := CalculateBatches(len(items), batchSize)
	if len(bounds) == 0 {
		return nil
	}

	batches := make([][]T, len(bounds))
	for i, b := range bounds {
		batches[i] = items[b[0]:b[1]:b[1]]
	}
	return batches
}

func calculateTotalBatches(totalItems, batchSize int) int {
	batches := totalItems / batchSize
	if totalItems%batchSize > 0 {
		batches++
	}
	return batches
}
