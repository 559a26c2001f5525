package obs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 300

type queryStartKey struct{}

type queryStart struct {
	name string
	at   time.Time
}

// PGXTracer spans every statement and, once domain metrics are registered,
// records its latency under the sqlc query name.
type PGXTracer struct{}

func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name := queryName(data.SQL)
	ctx, span := otel.Tracer("db.pgx").Start(ctx, "pgx "+name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", name),
		attribute.String("db.statement", truncateSQL(data.SQL)),
	)
	return context.WithValue(ctx, queryStartKey{}, queryStart{name: name, at: time.Now()})
}

func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	result := "ok"
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	switch {
	case data.Err == nil:
	case errors.Is(data.Err, pgx.ErrNoRows):
		result = "no_rows"
	default:
		result = "error"
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	}
	span.End()

	if start, ok := ctx.Value(queryStartKey{}).(queryStart); ok && DBQueryDuration != nil {
		DBQueryDuration.WithLabelValues(start.name, result).Observe(time.Since(start.at).Seconds())
	}
}

// queryName pulls GetPromoCodeByCode out of a "-- name: GetPromoCodeByCode :one"
// header. Statements without one are named by their leading verb.
func queryName(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if rest, ok := strings.CutPrefix(trimmed, "-- name:"); ok {
		if fields := strings.Fields(rest); len(fields) > 0 {
			return fields[0]
		}
	}
	if fields := strings.Fields(trimmed); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return "query"
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > maxStatementLen {
		return trimmed[:maxStatementLen] + "..."
	}
	return trimmed
}
