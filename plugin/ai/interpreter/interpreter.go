// Package interpreter converts free-text reminder requests into structured notifications.
package interpreter

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/hrygo/remindme/internal/errors"
	"github.com/hrygo/remindme/plugin/ai"
	"github.com/hrygo/remindme/plugin/notification"
)

// Interpreter turns user text into a notification.
//
// Errors are classified: apperrors.ErrCodeInterpretFailure when the text could not be
// converted (recoverable with Repeat), apperrors.ErrCodeInterpreterUnavailable when the
// backend could not be reached.
type Interpreter interface {
	Interpret(ctx context.Context, now time.Time, text string) (notification.Notification, error)
}

var markdownFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// LLMInterpreter interprets text with a chat completion model.
type LLMInterpreter struct {
	llm      ai.LLMService
	location *time.Location
	logger   *slog.Logger
}

// NewLLMInterpreter creates an interpreter over llm. Prompts and absolute
// instants use the civil timezone loc.
func NewLLMInterpreter(llm ai.LLMService, loc *time.Location) *LLMInterpreter {
	if loc == nil {
		loc = time.UTC
	}
	return &LLMInterpreter{
		llm:      llm,
		location: loc,
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger.
func (i *LLMInterpreter) SetLogger(logger *slog.Logger) {
	i.logger = logger
}

// Interpret implements Interpreter.
func (i *LLMInterpreter) Interpret(ctx context.Context, now time.Time, text string) (notification.Notification, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.InterpretFailure("empty request", nil)
	}

	messages := ai.FormatMessages(systemPrompt, buildUserPrompt(now, i.location, text), nil)
	content, err := i.llm.Chat(ctx, messages)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyCompletion) {
			return nil, apperrors.InterpretFailure("no completion given", err)
		}
		return nil, apperrors.InterpreterUnavailable("interpreter request failed", err)
	}

	i.logger.Debug("interpreter completion", slog.String("content", truncateForLog(content, 200)))

	n, err := i.parseResponse(content)
	if err != nil {
		return nil, apperrors.InterpretFailure("could not parse completion", err)
	}
	return n, nil
}

func (i *LLMInterpreter) parseResponse(content string) (notification.Notification, error) {
	content = strings.TrimSpace(content)
	if m := markdownFence.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	if content == "" {
		return nil, errors.New("empty completion")
	}
	return notification.Decode([]byte(content), i.location)
}

func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
