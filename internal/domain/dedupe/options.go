package dedupe

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithMaxSize caps the seen set.
// If maxSize > 0: bounded mode, oldest keys are evicted first.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(t *Tracker) {
		t.maxSize = maxSize
	}
}
