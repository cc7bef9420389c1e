package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cartsvc/database"

// queryTracer implements pgx.QueryTracer. It opens a span per query and logs
// queries that exceed the slow threshold.
type queryTracer struct {
	logger        *slog.Logger
	slowThreshold time.Duration
}

type queryTraceData struct {
	span  trace.Span
	start time.Time
	sql   string
}

type queryTraceCtxKey struct{}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", data.SQL),
		),
	)
	return context.WithValue(ctx, queryTraceCtxKey{}, &queryTraceData{
		span:  span,
		start: time.Now(),
		sql:   data.SQL,
	})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	td, ok := ctx.Value(queryTraceCtxKey{}).(*queryTraceData)
	if !ok {
		return
	}

	elapsed := time.Since(td.start)
	if data.Err != nil {
		td.span.RecordError(data.Err)
		td.span.SetStatus(codes.Error, data.Err.Error())
	}
	td.span.SetAttributes(attribute.Int64("db.duration_ms", elapsed.Milliseconds()))
	td.span.End()

	if t.slowThreshold > 0 && elapsed >= t.slowThreshold {
		t.logger.WarnContext(ctx, "slow query",
			slog.String("sql", td.sql),
			slog.Duration("duration", elapsed),
			slog.Duration("threshold", t.slowThreshold),
		)
	}
}

// WithQueryTracing returns a pool config option that installs query tracing
// and slow-query logging. A zero slowThreshold disables slow-query logging
// while keeping spans.
func WithQueryTracing(logger *slog.Logger, slowThreshold time.Duration) func(*pgxpool.Config) {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = &queryTracer{
			logger:        logger,
			slowThreshold: slowThreshold,
		}
	}
}
