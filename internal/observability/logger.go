package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Log field names shared by the intake path.
const (
	LogFieldUpdateRef = "update_ref"
	LogFieldChatID    = "chat_id"
	LogFieldAction    = "action"
	LogFieldDuration  = "duration_ms"
	LogFieldRecordIDs = "record_ids"
	LogFieldErrorCode = "error_code"
)

// UpdateLog scopes log records to one inbound update and times its handling.
type UpdateLog struct {
	Ref     string
	ChatID  int64
	Action  string
	started time.Time
	logger  *slog.Logger
}

// NewUpdateLog binds a fresh update reference, the chat and the action to logger.
func NewUpdateLog(logger *slog.Logger, action string, chatID int64) *UpdateLog {
	if logger == nil {
		logger = slog.Default()
	}
	ref := uuid.NewString()
	return &UpdateLog{
		Ref:     ref,
		ChatID:  chatID,
		Action:  action,
		started: time.Now(),
		logger: logger.With(
			slog.String(LogFieldUpdateRef, ref),
			slog.Int64(LogFieldChatID, chatID),
			slog.String(LogFieldAction, action),
		),
	}
}

func (l *UpdateLog) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func (l *UpdateLog) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// Error logs msg at error level with err attached.
func (l *UpdateLog) Error(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	l.logger.LogAttrs(ctx, slog.LevelError, msg, append(attrs, slog.Any("error", err))...)
}

// Elapsed is the time since the update log was created.
func (l *UpdateLog) Elapsed() time.Duration {
	return time.Since(l.started)
}

type updateLogKey struct{}

// WithUpdateLog attaches l to ctx.
func WithUpdateLog(ctx context.Context, l *UpdateLog) context.Context {
	return context.WithValue(ctx, updateLogKey{}, l)
}

// LoggerFrom returns the update-scoped logger carried by ctx, or fallback.
func LoggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(updateLogKey{}).(*UpdateLog); ok {
		return l.logger
	}
	if fallback == nil {
		return slog.Default()
	}
	return fallback
}
