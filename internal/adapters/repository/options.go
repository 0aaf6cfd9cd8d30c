package repository

const (
	defaultMaxOpenConns = 8
	defaultMaxIdleConns = 8
)

type options struct {
	maxOpenConns int
	maxIdleConns int
}

func defaultOptions() options {
	return options{maxOpenConns: defaultMaxOpenConns, maxIdleConns: defaultMaxIdleConns}
}

// Option configures the connection pool opened by Open.
type Option func(*options)

// WithMaxOpenConns caps open connections.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns caps idle connections.
func WithMaxIdleConns(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxIdleConns = n
		}
	}
}
