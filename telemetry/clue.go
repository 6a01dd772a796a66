package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"
)

// meterName and tracerName identify this module's instrumentation to
// whatever OTEL provider the host process configures.
const (
	meterName  = "github.com/agentbackplane/abp/runtime"
	tracerName = "github.com/agentbackplane/abp/runtime"
)

type (
	// ClueLogger satisfies Logger by delegating to goa.design/clue/log.
	ClueLogger struct{}

	// ClueMetrics satisfies Metrics by delegating to an OTEL meter.
	ClueMetrics struct {
		meter metric.Meter
	}

	// ClueTracer satisfies Tracer by delegating to an OTEL tracer.
	ClueTracer struct {
		tracer trace.Tracer
	}

	clueSpan struct {
		span trace.Span
	}
)

// NewClueLogger constructs a Logger that delegates to goa.design/clue/log.
// Formatting and debug-level settings are read from the context via
// log.Context/log.WithFormat/log.WithDebug at call sites that set them up.
func NewClueLogger() Logger { return ClueLogger{} }

// NewClueMetrics constructs a Metrics recorder backed by the global OTEL
// MeterProvider. Configure the provider before invoking runtime methods.
// Pair it with PublishRunCounters to surface a Runtime's lock-free run
// counters through the same meter.
func NewClueMetrics() Metrics {
	return &ClueMetrics{meter: otel.Meter(meterName)}
}

// NewClueTracer constructs a Tracer backed by the global OTEL
// TracerProvider.
func NewClueTracer() Tracer {
	return &ClueTracer{tracer: otel.Tracer(tracerName)}
}

// Debug emits a debug-level structured log message.
func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, fielders(msg, "", keyvals)...)
}

// Info emits an info-level structured log message.
func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Info(ctx, fielders(msg, "", keyvals)...)
}

// Warn emits a warning-level structured log message, tagged with a
// "severity" field so log sinks that group by severity (rather than by
// clue's own level) still bucket it correctly.
func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	log.Warn(ctx, fielders(msg, "warning", keyvals)...)
}

// Error emits an error-level structured log message.
func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	log.Error(ctx, nil, fielders(msg, "", keyvals)...)
}

// fielders builds the Clue field slice shared by every Logger method: a
// leading "msg" field, an optional "severity" override, then the caller's
// key-value pairs walked by kvPairs.
func fielders(msg, severity string, keyvals []any) []log.Fielder {
	out := []log.Fielder{log.KV{K: "msg", V: msg}}
	if severity != "" {
		out = append(out, log.KV{K: "severity", V: severity})
	}
	kvPairs(keyvals, func(k string, v any) {
		out = append(out, log.KV{K: k, V: v})
	})
	return out
}

// IncCounter increments a named counter by value.
func (m *ClueMetrics) IncCounter(name string, value float64, tags ...string) {
	counter, err := m.meter.Float64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), value, metric.WithAttributes(tagAttrs(tags)...))
}

// RecordTimer records a duration against a named histogram.
func (m *ClueMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	hist, err := m.meter.Float64Histogram(name)
	if err != nil {
		return
	}
	hist.Record(context.Background(), duration.Seconds(), metric.WithAttributes(tagAttrs(tags)...))
}

// RecordGauge records a point-in-time value. OTEL has no synchronous gauge
// instrument, so this uses a histogram suffixed "_gauge" as a stand-in.
// PublishRunCounters is the primary caller of this path: each of a Runtime's
// four RunCounters fields lands here once per published snapshot.
func (m *ClueMetrics) RecordGauge(name string, value float64, tags ...string) {
	hist, err := m.meter.Float64Histogram(name + "_gauge")
	if err != nil {
		return
	}
	hist.Record(context.Background(), value, metric.WithAttributes(tagAttrs(tags)...))
}

// Start begins a new span named name.
func (t *ClueTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	newCtx, span := t.tracer.Start(ctx, name, opts...)
	return newCtx, &clueSpan{span: span}
}

// Span returns the current span carried by ctx, if any.
func (t *ClueTracer) Span(ctx context.Context) Span {
	return &clueSpan{span: trace.SpanFromContext(ctx)}
}

func (s *clueSpan) End(opts ...trace.SpanEndOption) { s.span.End(opts...) }

func (s *clueSpan) AddEvent(name string, attrs ...any) {
	s.span.AddEvent(name, trace.WithAttributes(kvAttrs(attrs)...))
}

func (s *clueSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

func (s *clueSpan) RecordError(err error, opts ...trace.EventOption) {
	s.span.RecordError(err, opts...)
}

// kvPairs walks a (k1, v1, k2, v2, ...) slice, calling emit for every pair
// whose key is a string. A trailing unpaired key is paired with a nil
// value. This is the single traversal every key-value-to-$format converter
// below is built on, so the pairing rule (odd length, non-string keys) is
// defined exactly once.
func kvPairs(keyvals []any, emit func(key string, val any)) {
	for i := 0; i < len(keyvals); i += 2 {
		k, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		var v any
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		emit(k, v)
	}
}

// tagAttrs converts metrics dimension tags (k1, v1, k2, v2, ...) — always
// string-valued — into OTEL attributes.
func tagAttrs(tags []string) []attribute.KeyValue {
	pairs := make([]any, len(tags))
	for i, t := range tags {
		pairs[i] = t
	}
	var attrs []attribute.KeyValue
	kvPairs(pairs, func(k string, v any) {
		s, _ := v.(string)
		attrs = append(attrs, attribute.String(k, s))
	})
	return attrs
}

// kvAttrs converts span-event key-value pairs into OTEL attributes,
// dispatching on the value's dynamic type; anything it doesn't recognize
// falls back to an empty string attribute rather than being dropped, so the
// key is still visible on the span.
func kvAttrs(keyvals []any) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	kvPairs(keyvals, func(k string, v any) {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, ""))
		}
	})
	return attrs
}
