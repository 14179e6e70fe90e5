package ulogger

import "io"

// Options configures a Logger built by New.
type Options struct {
	writer     io.Writer
	loggerType string
	logLevel   string
	skip       int
}

// Option mutates Options when passed to New, New(), or Duplicate().
type Option func(*Options)

// DefaultOptions returns the baseline options: zerolog writing to stdout at INFO.
func DefaultOptions() *Options {
	return &Options{
		loggerType: "zerolog",
		logLevel:   "INFO",
	}
}

// WithWriter overrides the destination the logger writes to.
func WithWriter(w io.Writer) Option {
	return func(o *Options) { o.writer = w }
}

// WithLoggerType selects the backend: "zerolog" or "gocore".
func WithLoggerType(loggerType string) Option {
	return func(o *Options) { o.loggerType = loggerType }
}

// WithLevel sets the initial log level (DEBUG, INFO, WARN, ERROR, FATAL).
func WithLevel(level string) Option {
	return func(o *Options) { o.logLevel = level }
}

// WithSkipFrame adjusts how many stack frames the caller annotation skips.
func WithSkipFrame(skip int) Option {
	return func(o *Options) { o.skip = skip }
}
