package env

// table is a dense handle table. Handle 0 is reserved and always invalid;
// handle n addresses entries[n-1].
type table[T any] struct {
	entries []T
}

func newTable[T any](capacity int) table[T] {
	return table[T]{entries: make([]T, 0, capacity)}
}

// insert appends a value and returns its handle.
func (t *table[T]) insert(value T) uint64 {
	t.entries = append(t.entries, value)
	return uint64(len(t.entries))
}

// get retrieves a value by handle.
func (t *table[T]) get(handle uint64) (T, bool) {
	var zero T
	if handle == 0 {
		return zero, false
	}
	idx := handle - 1
	if idx >= uint64(len(t.entries)) {
		return zero, false
	}
	return t.entries[idx], true
}

// len returns the number of live handles.
func (t *table[T]) len() int {
	return len(t.entries)
}

// each iterates over all entries in handle order.
func (t *table[T]) each(fn func(handle uint64, value T) bool) {
	for i, v := range t.entries {
		if !fn(uint64(i+1), v) {
			return
		}
	}
}
