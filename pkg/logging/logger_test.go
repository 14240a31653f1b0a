package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	assertEventuallyTimeout = 2 * time.Second
	assertEventuallyTick    = 10 * time.Millisecond
)

func TestLevel_String(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.level.String())
	}
}

func TestNew_DefaultsToStderrText(t *testing.T) {
	l := New(Config{})
	require.NotNil(t, l)
	assert.Nil(t, l.file)
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{LogDir: dir, Service: "testsvc", Level: LevelDebug})
	defer l.Close()

	l.Info("hello", "k", "v")

	entries, err := filepath.Glob(filepath.Join(dir, "testsvc_*.log"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), `"service":"testsvc"`)
}

func TestLogger_With(t *testing.T) {
	exp := NewBufferedExporter()
	l := New(Config{Quiet: true, Exporter: exp})
	child := l.With("request_id", "abc123")
	child.Info("handled request")

	require.Eventually(t, func() bool {
		return len(exp.Entries()) == 1
	}, assertEventuallyTimeout, assertEventuallyTick)
	assert.Equal(t, "handled request", exp.Entries()[0].Message)
}

func TestBufferedExporter_CollectsEntries(t *testing.T) {
	exp := NewBufferedExporter()
	l := New(Config{Quiet: true, Exporter: exp, Level: LevelInfo})
	l.Info("first")
	l.Warn("second")

	require.Eventually(t, func() bool {
		return len(exp.Entries()) == 2
	}, assertEventuallyTimeout, assertEventuallyTick)

	entries := exp.Entries()
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
}

func TestWriterExporter_WritesLine(t *testing.T) {
	var buf bytes.Buffer
	exp := NewWriterExporter(&buf)
	l := New(Config{Quiet: true, Exporter: exp})
	l.Info("written")

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "written")
	}, assertEventuallyTimeout, assertEventuallyTick)
}

func TestNopExporter_IsNoop(t *testing.T) {
	exp := &NopExporter{}
	assert.NoError(t, exp.Export(nil, LogEntry{}))
	assert.NoError(t, exp.Flush(nil))
	assert.NoError(t, exp.Close())
}
