package dedup

// options holds configuration for a Deduplicator.
type options struct {
	similarityWorkers int
}

// Option configures a Deduplicator.
type Option func(*options)

func newOptions(opts ...Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSimilarityWorkers enables parallel evaluation of the pass-two
// similarity matrix across n goroutines. Merges are still applied
// sequentially afterwards, so results match the sequential scan. Values
// below 2 keep the scan sequential.
func WithSimilarityWorkers(n int) Option {
	return func(o *options) {
		o.similarityWorkers = n
	}
}
