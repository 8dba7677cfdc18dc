// AngelaMos | 2026
// notify.go

// Package notify carries user-visible notifications out of the state
// containers. Operations never fail loudly: they report through a Notifier
// and return an error the caller may inspect.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

func Success(title, message string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: message}
}

func Info(title, message string) Notification {
	return Notification{Level: LevelInfo, Title: title, Message: message}
}

func Warning(title, message string) Notification {
	return Notification{Level: LevelWarning, Title: title, Message: message}
}

func Error(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message}
}

// Recorder collects notifications for the lifetime of one request.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Drain returns everything collected so far and resets the recorder.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.items
	r.items = nil
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	switch n.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}

	l.logger.Log(ctx, level, "notification",
		"title", n.Title,
		"message", n.Message,
	)
}

type multi []Notifier

// Multi fans a notification out to every non-nil notifier.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(context.Context, Notification) {}

type recorderKey struct{}

// ContextWithRecorder attaches the request's recorder so handlers can drain
// it into the response.
func ContextWithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// RecorderFromContext returns the attached recorder, or a detached one so
// callers never need a nil check.
func RecorderFromContext(ctx context.Context) *Recorder {
	if r, ok := ctx.Value(recorderKey{}).(*Recorder); ok && r != nil {
		return r
	}
	return NewRecorder()
}

// Drain empties the recorder attached to ctx.
func Drain(ctx context.Context) []Notification {
	return RecorderFromContext(ctx).Drain()
}

// Send records n on the recorder attached to ctx.
func Send(ctx context.Context, n Notification) {
	RecorderFromContext(ctx).Notify(ctx, n)
}

// Context delivers to whichever recorder is attached to the call's ctx. It
// suits long-lived services that serve many requests.
var Context Notifier = contextNotifier{}

type contextNotifier struct{}

func (contextNotifier) Notify(ctx context.Context, n Notification) {
	Send(ctx, n)
}
