package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	kerrors "github.com/krigo/krigo/pkg/errors"
)

func TestErrFmtHandlerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	err := kerrors.NewLinearAlgebraError("Regressor.Regress", 3, "matrix is not positive definite")
	logger.Error("solve failed", ErrAttr(err))

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("log output is not JSON: %v", jsonErr)
	}
	if _, ok := record[StacktraceAttrKey]; !ok {
		t.Errorf("record %v missing %q attribute", record, StacktraceAttrKey)
	}
}

func TestErrFmtHandlerAddsTypedErrorFields(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	logger.Error("solve failed",
		ErrAttr(kerrors.NewLinearAlgebraError("Regressor.Regress", 3, "matrix is not positive definite")))

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("log output is not JSON: %v", jsonErr)
	}
	if got := record[OpKey]; got != "Regressor.Regress" {
		t.Errorf("%s = %v, want Regressor.Regress", OpKey, got)
	}
	if got := record[BatchIndexKey]; got != float64(3) {
		t.Errorf("%s = %v, want 3", BatchIndexKey, got)
	}

	buf.Reset()
	logger.Error("bad tensors",
		ErrAttr(kerrors.NewDimensionError("Regressor.Regress", 5, 4, 1)))
	record = nil
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("log output is not JSON: %v", jsonErr)
	}
	if got := record[ExpectedKey]; got != float64(5) {
		t.Errorf("%s = %v, want 5", ExpectedKey, got)
	}
	if got := record[GotKey]; got != float64(4) {
		t.Errorf("%s = %v, want 4", GotKey, got)
	}
	if got := record[AxisKey]; got != float64(1) {
		t.Errorf("%s = %v, want 1", AxisKey, got)
	}
}

func TestErrFmtHandlerPassesThroughPlainRecords(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "precomputed coefficients", 0)
	rec.AddAttrs(slog.Int(TrainCountKey, 100), slog.Int(NNCountKey, 30))
	if err := handler.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if strings.Contains(buf.String(), StacktraceAttrKey) {
		t.Errorf("plain record gained a stacktrace attribute: %s", buf.String())
	}
}

func TestUseZerologWarnings(t *testing.T) {
	var buf bytes.Buffer
	UseZerologWarnings(zerolog.New(&buf))
	defer kerrors.SetZerologWarnFunc(nil)

	kerrors.Warn(kerrors.NewUndersampledClassWarning(1, 10, 4))

	out := buf.String()
	if !strings.Contains(out, `"class":1`) {
		t.Errorf("zerolog output %q missing structured warning fields", out)
	}
}
