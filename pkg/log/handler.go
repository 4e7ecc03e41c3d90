package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	kerrors "github.com/krigo/krigo/pkg/errors"
)

// Attribute keys the handler attaches when decorating error records.
const (
	OpKey         = "op"
	BatchIndexKey = "batch_index"
	ExpectedKey   = "expected"
	GotKey        = "got"
	AxisKey       = "axis"
)

// ErrFmtHandler is a slog handler that decorates records carrying an error
// attribute. It extracts the cockroachdb/errors stack trace and, for the
// engine error types, their structured fields: the failing operation, the
// batch element of a failed solve, the axes of a dimension mismatch.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps a slog handler so that records carrying an error
// attribute also emit the stacktrace and typed-error attributes.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var logErr error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			if err, ok := attr.Value.Any().(error); ok {
				logErr = err
			}
			return false
		}
		return true
	})
	if logErr != nil {
		r.AddAttrs(errorAttrs(logErr)...)
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func errorAttrs(err error) []slog.Attr {
	attrs := make([]slog.Attr, 0, 5)
	if st := extractStacktrace(err); st != "" {
		attrs = append(attrs, slog.String(StacktraceAttrKey, st))
	}
	var laErr *kerrors.LinearAlgebraError
	if errors.As(err, &laErr) {
		return append(attrs,
			slog.String(OpKey, laErr.Op),
			slog.Int(BatchIndexKey, laErr.BatchIndex))
	}
	var dimErr *kerrors.DimensionError
	if errors.As(err, &dimErr) {
		return append(attrs,
			slog.String(OpKey, dimErr.Op),
			slog.Int(ExpectedKey, dimErr.Expected),
			slog.Int(GotKey, dimErr.Got),
			slog.Int(AxisKey, dimErr.Axis))
	}
	return attrs
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
