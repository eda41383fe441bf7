package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// newTestLogger creates a logger that writes JSON entries to a buffer.
func newTestLogger() (Logger, *zaptest.Buffer) {
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLogger_FieldsAppearInOutput(t *testing.T) {
	l, buf := newTestLogger()
	l.Info("prescription analyzed",
		String("drug", "Metformin"),
		Int("medications", 2),
		Float64("confidence", 0.91),
		Bool("interactive", false),
	)

	out := buf.String()
	assert.Contains(t, out, "prescription analyzed")
	assert.Contains(t, out, "Metformin")
	assert.Contains(t, out, `"medications":2`)
}

func TestLogger_With_DoesNotMutateParent(t *testing.T) {
	parent, buf := newTestLogger()
	child := parent.With(String("session_id", "s1"))

	parent.Info("parent entry")
	lines := buf.Lines()
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "session_id")

	child.Info("child entry")
	lines = buf.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "session_id")
}

func TestErr_NilSafe(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)

	f = Err(errors.New("boom"))
	assert.Equal(t, "boom", f.Value)
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg", String("k", "v"))
	l.Warn("msg")
	l.Error("msg", Err(errors.New("x")))
	assert.Equal(t, l, l.With(String("a", "b")))
	assert.Equal(t, l, l.Named("child"))
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	l, _ := newTestLogger()
	SetDefault(l)
	assert.Equal(t, l, Default())

	// nil is ignored
	SetDefault(nil)
	assert.Equal(t, l, Default())
}
