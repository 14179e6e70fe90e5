// Package tracing provides lightweight per-call timing and logging instrumentation
// built on top of gocore's statistics tree, mirroring the way the upstream node
// wires stats, prometheus, and structured logging into every store and handler call.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cardano-tools/chainindex/ulogger"
)

type statsKey struct{}

type correlationIDKey struct{}

var defaultStat = gocore.NewStat("chainindex")

// CorrelationID returns the correlation id attached to ctx by the nearest
// enclosing Start call, or "" if ctx was never passed through Start.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// withCorrelationID reuses an id already attached to ctx (so a nested Start
// inside an already-traced call keeps the same id), or mints a fresh one.
func withCorrelationID(ctx context.Context) (context.Context, string) {
	if id := CorrelationID(ctx); id != "" {
		return ctx, id
	}

	id := uuid.New().String()
	return context.WithValue(ctx, correlationIDKey{}, id), id
}

// NewStatFromContext starts a child gocore.Stat under the stat found in ctx (or
// defaultParent if none is present) and returns an updated context carrying it.
func NewStatFromContext(ctx context.Context, key string, defaultParent *gocore.Stat) (time.Time, *gocore.Stat, context.Context) {
	parentStat, ok := ctx.Value(statsKey{}).(*gocore.Stat)
	if !ok {
		parentStat = defaultParent
	}

	stat := parentStat.NewStat(key)

	return gocore.CurrentTime(), stat, context.WithValue(ctx, statsKey{}, stat)
}

// StartStatFromContext starts a stat rooted at the package-level default stat.
func StartStatFromContext(ctx context.Context, key string) (time.Time, *gocore.Stat, context.Context) {
	return NewStatFromContext(ctx, key, defaultStat)
}

// Option configures a traced span started by Start.
type Option func(*options)

type options struct {
	histogram  prometheus.Observer
	counter    prometheus.Counter
	logger     ulogger.Logger
	logMessage string
	logArgs    []interface{}
}

// WithHistogram observes the elapsed duration, in seconds, on the given histogram
// when the span finishes.
func WithHistogram(histogram prometheus.Observer) Option {
	return func(o *options) { o.histogram = histogram }
}

// WithCounter increments the given counter when the span finishes.
func WithCounter(counter prometheus.Counter) Option {
	return func(o *options) { o.counter = counter }
}

// WithLogMessage logs format (with args) at INFO on start, and again with a
// " DONE in <duration>" suffix on finish.
func WithLogMessage(logger ulogger.Logger, format string, args ...interface{}) Option {
	return func(o *options) {
		o.logger = logger
		o.logMessage = format
		o.logArgs = args
	}
}

// Start begins a timed span named name, returning a context carrying the nested
// gocore.Stat and a finish function that must be deferred by the caller.
func Start(ctx context.Context, name string, opts ...Option) (context.Context, func()) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	ctx, id := withCorrelationID(ctx)

	wallStart := time.Now()
	start, stat, spanCtx := StartStatFromContext(ctx, name)

	if o.logger != nil && o.logMessage != "" {
		o.logger.Infof("[%s] "+o.logMessage, append([]interface{}{id}, o.logArgs...)...)
	}

	return spanCtx, func() {
		stat.AddTime(start)

		elapsed := time.Since(wallStart)
		if o.histogram != nil {
			o.histogram.Observe(elapsed.Seconds())
		}

		if o.counter != nil {
			o.counter.Inc()
		}

		if o.logger != nil && o.logMessage != "" {
			o.logger.Infof("[%s] "+o.logMessage+fmt.Sprintf(" DONE in %s", elapsed), append([]interface{}{id}, o.logArgs...)...)
		}
	}
}
