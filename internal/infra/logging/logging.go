package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"creator-ledger/internal/config"
)

// showPII disables Redact. Only dev runs set it.
var showPII atomic.Bool

// New builds the root logger. Levels are zerolog names; an unknown level
// means info. Console output is used for dev or format "console", and
// sampling (first 100, then 1 in 100) only applies outside dev.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	return newLogger(os.Stdout, cfg, dev)
}

func newLogger(w io.Writer, cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	showPII.Store(dev)

	if dev || strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(w).With().Timestamp().Str("service", "creator-ledger")
	if dev {
		ctx = ctx.Caller()
	}
	base := ctx.Logger()

	if cfg.Sampling && !dev {
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

type ctxKey int

const (
	keyTrace ctxKey = iota
	keyUser
	keyEvent
)

var ctxFields = [...]struct {
	key  ctxKey
	name string
}{
	{keyTrace, "trace_id"},
	{keyUser, "user_id"},
	{keyEvent, "event_id"},
}

// With returns base enriched with whichever of trace_id, user_id and
// event_id are present in ctx.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	for _, f := range ctxFields {
		if v, ok := ctx.Value(f.key).(string); ok && v != "" {
			l = l.Str(f.name, v)
		}
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs entry and exit of name at trace level.
//
//	defer logging.TraceDuration(logger, "TipUC.SendTip")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

// Redact masks personal data such as emails unless the logger was built for dev.
func Redact(s string) string {
	if showPII.Load() {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyTrace, id)
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyUser, id)
}

func WithEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyEvent, id)
}

// UserIDFrom returns the authenticated user id stored by WithUserID.
func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUser).(string)
	return v, ok && v != ""
}

func TraceIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(keyTrace).(string)
	return v
}
