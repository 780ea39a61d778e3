package app

import "net"

type options struct {
	watch    bool
	listener net.Listener
}

// Option customises the serve runtime.
type Option func(*options)

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWatch re-runs the conversion whenever the export changes.
func WithWatch() Option {
	return func(o *options) { o.watch = true }
}

// WithListener serves on an existing listener instead of binding the
// configured port. Used in tests.
func WithListener(l net.Listener) Option {
	return func(o *options) { o.listener = l }
}
