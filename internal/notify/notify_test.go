// AngelaMos | 2026
// notify_test.go

package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderDrain(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder()

	_, ok := rec.Last()
	assert.False(t, ok)

	rec.Notify(ctx, Success("Saved", "product saved"))
	rec.Notify(ctx, Error("Failed", "stock"))

	last, ok := rec.Last()
	assert.True(t, ok)
	assert.Equal(t, LevelError, last.Level)

	got := rec.Drain()
	assert.Len(t, got, 2)
	assert.Equal(t, "Saved", got[0].Title)
	assert.Empty(t, rec.Drain())
}

func TestMultiSkipsNil(t *testing.T) {
	ctx := context.Background()
	a, b := NewRecorder(), NewRecorder()

	Multi(a, nil, b).Notify(ctx, Info("t", "m"))

	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1)
}

func TestLogNotifierLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewLogNotifier(logger).Notify(context.Background(), Warning("Careful", "partial delete"))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "title=Careful")
}

func TestRecorderContext(t *testing.T) {
	rec := NewRecorder()
	ctx := ContextWithRecorder(context.Background(), rec)

	RecorderFromContext(ctx).Notify(ctx, Info("a", "b"))
	got := Drain(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, LevelInfo, got[0].Level)
	assert.Empty(t, Drain(ctx))

	assert.NotNil(t, RecorderFromContext(context.Background()))
	assert.Empty(t, Drain(context.Background()))
}

func TestContextNotifierRoutesToRequestRecorder(t *testing.T) {
	first, second := NewRecorder(), NewRecorder()
	ctxA := ContextWithRecorder(context.Background(), first)
	ctxB := ContextWithRecorder(context.Background(), second)

	Context.Notify(ctxA, Success("saved", "product added"))
	Send(ctxB, Error("failed", "category in use"))

	a, b := first.Drain(), second.Drain()
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, LevelSuccess, a[0].Level)
	assert.Equal(t, LevelError, b[0].Level)
}
