package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContext(t *testing.T) {
	Init("production", "debug")
	assert.Same(t, Get(), WithContext(context.Background()))

	reqLogger := WithRequestID("abc123")
	ctx := NewContext(context.Background(), &reqLogger)
	assert.Same(t, &reqLogger, WithContext(ctx))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestCatalogCallLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", "debug", &buf)
	t.Cleanup(func() { Init("production", "info") })

	CatalogCall(context.Background(), "GET", "/api/products/p1/variants", 200, 12*time.Millisecond, nil)
	entry := lastEntry(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "Catalog API call", entry["message"])

	CatalogCall(context.Background(), "PUT", "/api/products/p1/variants/bulk", 503, time.Millisecond, nil)
	assert.Equal(t, "warn", lastEntry(t, &buf)["level"])

	CatalogCall(context.Background(), "GET", "/api/products", 0, time.Millisecond, errors.New("dial tcp: refused"))
	entry = lastEntry(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "dial tcp: refused", entry["error"])
	assert.NotContains(t, entry, "status")
}
