package repositories

// ReadResult is the outcome of a lenient multi-document read. Items is
// never nil; Err is set when the store failed and Items is empty because of
// it rather than because nothing matched.
type ReadResult[T any] struct {
	Items []T
	Err   error
}

func (r ReadResult[T]) Degraded() bool { return r.Err != nil }

// Lookup is the outcome of a lenient single-document read.
type Lookup[T comparable] struct {
	Item T
	Err  error
}

func (l Lookup[T]) Found() bool {
	var zero T
	return l.Item != zero
}

func (l Lookup[T]) Degraded() bool { return l.Err != nil }
