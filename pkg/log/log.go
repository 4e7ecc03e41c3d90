// Package log provides structured logging for krigo. It configures the
// standard log/slog JSON handler so that errors produced by pkg/errors emit
// their cockroachdb/errors stack traces as a structured attribute, and it can
// bridge the library's warning stream onto a zerolog logger.
package log

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	kerrors "github.com/krigo/krigo/pkg/errors"
)

// SetupLogger installs a JSON slog handler wrapped so that error attributes
// carry stack traces.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps an error for slog so the handler can extract its stack trace.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// Attribute keys shared by the regression engines' log records.
const (
	BatchCountKey    = "batch_count"
	NNCountKey       = "nn_count"
	ResponseCountKey = "response_count"
	TrainCountKey    = "train_count"
)

// UseZerologWarnings routes the library warning stream (pkg/errors.Warn)
// through the given zerolog logger. Warning types implementing
// zerolog.LogObjectMarshaler are emitted as structured objects.
func UseZerologWarnings(logger zerolog.Logger) {
	kerrors.SetZerologWarnFunc(func(warning error) {
		event := logger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event.Object("warning", obj).Msg(warning.Error())
			return
		}
		event.Err(warning).Msg("krigo warning")
	})
}
