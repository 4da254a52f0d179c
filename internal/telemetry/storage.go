package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/types"
)

const storageScopeName = "github.com/steveyegge/readiness/storage"

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in rd.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	return newInstrumented(s)
}

func newInstrumented(s storage.Storage) *InstrumentedStorage {
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("rd.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("rd.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("rd.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// Unwrap returns the decorated store.
func (s *InstrumentedStorage) Unwrap() storage.Storage { return s.inner }

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedStorage) Load(ctx context.Context, id string) (*types.ProjectRecord, error) {
	attrs := []attribute.KeyValue{attribute.String("rd.project.id", id)}
	ctx, span, t := s.op(ctx, "Load", attrs...)
	v, err := s.inner.Load(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Save(ctx context.Context, rec *types.ProjectRecord, fields ...types.Field) (*types.ProjectRecord, error) {
	attrs := []attribute.KeyValue{
		attribute.String("rd.project.id", rec.ID),
		attribute.Int("rd.fields", len(fields)),
	}
	ctx, span, t := s.op(ctx, "Save", attrs...)
	v, err := s.inner.Save(ctx, rec, fields...)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Create(ctx context.Context, rec *types.ProjectRecord) error {
	attrs := []attribute.KeyValue{attribute.String("rd.project.id", rec.ID)}
	ctx, span, t := s.op(ctx, "Create", attrs...)
	err := s.inner.Create(ctx, rec)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) List(ctx context.Context) ([]string, error) {
	ctx, span, t := s.op(ctx, "List")
	v, err := s.inner.List(ctx)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
