package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
)

func newTestApp(t *testing.T, args ...string) *Application {
	t.Helper()
	var errBuf bytes.Buffer
	app, err := New(append([]string{"picalc", "-no-color"}, args...), &errBuf, WithLogger(logging.NopLogger{}))
	require.NoError(t, err, errBuf.String())
	return app
}

func TestNew_ParsesArguments(t *testing.T) {
	app := newTestApp(t, "-length", "1000", "-workers", "4")
	assert.Equal(t, int64(1000), app.Config.Length)
	assert.Equal(t, 4, app.Config.Workers)
	assert.NotNil(t, app.collector)
}

func TestNew_Help(t *testing.T) {
	var errBuf bytes.Buffer
	_, err := New([]string{"picalc", "-h"}, &errBuf)
	require.Error(t, err)
	assert.True(t, IsHelpError(err))
	assert.Contains(t, errBuf.String(), "Usage:")
}

func TestNew_InvalidConfig(t *testing.T) {
	var errBuf bytes.Buffer
	_, err := New([]string{"picalc", "-length", "3", "-workers", "0"}, &errBuf)
	require.Error(t, err)
	assert.False(t, IsHelpError(err))
	assert.Equal(t, apperrors.ExitErrorConfig, apperrors.ExitCodeFor(err))
}

func TestRun_MoreWorkersThanTerms(t *testing.T) {
	app := newTestApp(t, "-length", "3", "-workers", "8")
	var out bytes.Buffer

	code := app.Run(context.Background(), &out)

	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, out.String(), "Pi: 3.4666")
}

func TestRun_DefaultOutput(t *testing.T) {
	app := newTestApp(t, "-length", "10000", "-workers", "4")
	var out bytes.Buffer

	code := app.Run(context.Background(), &out)

	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, out.String(), "Pi: 3.14149265")
	assert.Contains(t, out.String(), "s\n")
}

func TestRun_Quiet(t *testing.T) {
	app := newTestApp(t, "-length", "10000", "-workers", "4", "-quiet")
	var out bytes.Buffer

	code := app.Run(context.Background(), &out)

	require.Equal(t, apperrors.ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "3.14149265"), lines[0])
}

func TestRun_DetailsAndVerbose(t *testing.T) {
	app := newTestApp(t, "-length", "1000", "-workers", "3", "-details", "-verbose")
	var out bytes.Buffer

	code := app.Run(context.Background(), &out)

	require.Equal(t, apperrors.ExitSuccess, code)
	s := out.String()
	assert.Contains(t, s, "Execution Configuration")
	assert.Contains(t, s, "Absolute error")
	assert.Contains(t, s, "#2 [666, 1000)")
	assert.Contains(t, s, "Memory")
}

func TestRun_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi.txt")
	app := newTestApp(t, "-length", "1000", "-workers", "2", "-output", path)
	var out bytes.Buffer

	require.Equal(t, apperrors.ExitSuccess, app.Run(context.Background(), &out))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Leibniz Series Result")
	assert.Contains(t, out.String(), "Result saved to")
}

func TestRun_CanceledContext(t *testing.T) {
	app := newTestApp(t, "-length", "1000000000000", "-workers", "2")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	code := app.Run(ctx, &out)

	assert.Equal(t, apperrors.ExitErrorCanceled, code)
	assert.Contains(t, out.String(), "Status: Canceled")
}

func TestRun_Timeout(t *testing.T) {
	app := newTestApp(t, "-length", "1000000000000", "-workers", "2", "-timeout", "20ms")
	var out bytes.Buffer

	code := app.Run(context.Background(), &out)

	assert.Equal(t, apperrors.ExitErrorTimeout, code)
	assert.Contains(t, out.String(), "Status: Timeout")
}

func TestRun_MetricsServer(t *testing.T) {
	app := newTestApp(t, "-length", "1000", "-workers", "2", "-metrics-addr", "127.0.0.1:0")
	var out bytes.Buffer

	require.Equal(t, apperrors.ExitSuccess, app.Run(context.Background(), &out))
}

func TestRun_MetricsServerBadAddress(t *testing.T) {
	app := newTestApp(t, "-length", "1000", "-workers", "2", "-metrics-addr", "256.0.0.1:bad")
	var out bytes.Buffer

	assert.Equal(t, apperrors.ExitErrorGeneric, app.Run(context.Background(), &out))
	assert.Contains(t, app.ErrWriter.(*bytes.Buffer).String(), "metrics server")
}

func TestIsHelpError(t *testing.T) {
	t.Parallel()
	assert.False(t, IsHelpError(nil))
	assert.False(t, IsHelpError(errors.New("x")))
}

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"--version"}, true},
		{[]string{"-length", "10", "-version"}, true},
		{[]string{"-V"}, true},
		{[]string{"-v"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasVersionFlag(tt.args), "%v", tt.args)
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	PrintVersion(&out)
	assert.True(t, strings.HasPrefix(out.String(), "picalc "+Version))
	assert.Contains(t, out.String(), "go:")
}
