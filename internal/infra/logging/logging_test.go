//go:build !integration

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"creator-ledger/internal/config"
	"creator-ledger/internal/infra/logging"
)

func TestWithAttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := logging.WithTraceID(context.Background(), "trace-1")
	ctx = logging.WithUserID(ctx, "user-1")
	ctx = logging.WithEventID(ctx, "evt_1")

	logging.With(ctx, &base).Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	for k, want := range map[string]string{"trace_id": "trace-1", "user_id": "user-1", "event_id": "evt_1"} {
		if got[k] != want {
			t.Errorf("expected %s=%s, got %v", k, want, got[k])
		}
	}
	if id, ok := logging.UserIDFrom(ctx); !ok || id != "user-1" {
		t.Errorf("expected user id from ctx, got %q %v", id, ok)
	}
}

func TestRedact(t *testing.T) {
	logging.New(config.LogConfig{Level: "trace"}, false)
	if got := logging.Redact("viewer@example.com"); got != "view...om" {
		t.Errorf("unexpected redaction: %s", got)
	}
	if got := logging.Redact("short"); got != "***" {
		t.Errorf("unexpected redaction of short value: %s", got)
	}

	logging.New(config.LogConfig{Level: "trace"}, true)
	t.Cleanup(func() { logging.New(config.LogConfig{Level: "trace"}, false) })
	if got := logging.Redact("viewer@example.com"); got != "viewer@example.com" {
		t.Errorf("dev mode must not redact, got %s", got)
	}
}
