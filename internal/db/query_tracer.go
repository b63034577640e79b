package db

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5"
)

type querySpanContextKey struct{}

// queryTracer wraps every statement in a sentry span so slow order
// lookups and updates show up on the request trace. When no transaction
// is active the statement runs untraced.
type queryTracer struct{}

func newQueryTracer() *queryTracer {
	return &queryTracer{}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	if sentry.SpanFromContext(ctx) == nil {
		return ctx
	}

	sql := compactSQL(data.SQL)
	span := sentry.StartSpan(
		ctx,
		"db.query",
		sentry.WithDescription(sql),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	span.SetData("db.system", "postgresql")
	if verb := sqlVerb(sql); verb != "" {
		span.SetData("db.operation", verb)
	}

	return context.WithValue(span.Context(), querySpanContextKey{}, span)
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, _ := ctx.Value(querySpanContextKey{}).(*sentry.Span)
	if span == nil {
		return
	}

	if data.Err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetData("db.error", data.Err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
		if rows := data.CommandTag.RowsAffected(); rows >= 0 {
			span.SetData("db.rows_affected", rows)
		}
	}

	span.Finish()
}

// compactSQL collapses whitespace so multi-line statements read as one
// span description, capped to keep span payloads small.
func compactSQL(sql string) string {
	compacted := strings.Join(strings.Fields(sql), " ")
	if compacted == "" {
		return "sql.query"
	}
	const maxDescriptionLen = 512
	if len(compacted) > maxDescriptionLen {
		return compacted[:maxDescriptionLen]
	}
	return compacted
}

func sqlVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
