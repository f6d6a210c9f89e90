package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

type ctxKey struct{}

// Init configures the global logger. Development environments get the
// console writer; everything else logs JSON to stdout.
func Init(env string, logLevel string) {
	InitWithWriter(env, logLevel, os.Stdout)
}

// InitWithWriter is Init with an explicit output.
func InitWithWriter(env, logLevel string, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(logLevel))

	output := out
	switch strings.ToLower(env) {
	case "", "dev", "development":
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	log = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func Get() *zerolog.Logger {
	return &log
}

// WithContext returns the request logger stored in ctx, or the global one.
func WithContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &log
}

func NewContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func WithRequestID(requestID string) zerolog.Logger {
	return log.With().Str("request_id", requestID).Logger()
}

func WithUserID(l zerolog.Logger, userID string) zerolog.Logger {
	return l.With().Str("user_id", userID).Logger()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

// DBQuery logs an audit statement at debug level, or its failure.
func DBQuery(query string, duration time.Duration, err error) {
	event := log.Debug().
		Str("query", query).
		Dur("duration_ms", duration)

	if err != nil {
		event.Err(err).Msg("DB Query Failed")
	} else {
		event.Msg("DB Query")
	}
}

// CatalogCall logs one store API round trip on the request logger. Transport
// failures and 5xx responses are warnings; the rest is debug.
func CatalogCall(ctx context.Context, method, path string, status int, duration time.Duration, err error) {
	l := WithContext(ctx)
	event := l.Debug()
	if err != nil || status >= 500 {
		event = l.Warn()
	}
	event = event.
		Str("method", method).
		Str("path", path).
		Dur("duration_ms", duration)
	if status > 0 {
		event = event.Int("status", status)
	}
	if err != nil {
		event.Err(err).Msg("Catalog API request failed")
		return
	}
	event.Msg("Catalog API call")
}

func ServiceStart(name, version, port string) {
	log.Info().
		Str("service", name).
		Str("version", version).
		Str("port", port).
		Msg("Service Started")
}

func ServiceStop(name string) {
	log.Info().
		Str("service", name).
		Msg("Service Stopped")
}
