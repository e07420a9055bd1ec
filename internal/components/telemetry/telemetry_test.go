package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	scoped := NewScopedAPI("cors", NewScopedAPI("regular", rec))

	scoped.ReportBroken("module-page", errors.New("boom"), "CS1010")
	scoped.ReportWarning("lesson-types")
	scoped.ReportCount("modules", 42)

	broken := rec.Reports(KindBroken)
	require.Len(t, broken, 1)
	require.Equal(t, "regular.cors.module-page", broken[0].ID)
	require.Equal(t, "CS1010", broken[0].Params[1])

	require.True(t, rec.Has(KindWarning, "cors.lesson-types"))
	n, ok := rec.LastCount("cors.modules")
	require.True(t, ok)
	require.Equal(t, int64(42), n)
}

func TestMulti(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	m := Multi{a, b}

	m.ReportWarning("x")
	m.ReportDebug("y")

	require.Len(t, a.Reports(KindWarning), 1)
	require.Len(t, b.Reports(KindWarning), 1)
	require.Len(t, b.Reports(KindDebug), 1)
}

func TestConfigEnabled(t *testing.T) {
	require.False(t, Config{}.Enabled())
	require.True(t, Config{Otlp: OtlpConfig{
		Metrics: OtlpConnConfig{HttpEndpoint: "http://localhost:4318"},
	}}.Enabled())
}
