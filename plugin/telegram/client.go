// Package telegram adapts the Bot API client to what the bot needs:
// long polling, sending, editing and deleting messages, and answering button presses.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// allowedUpdates limits polling to the update kinds the bot handles.
var allowedUpdates = []string{"message", "callback_query"}

// APIError is an error reported by the Bot API itself.
type APIError struct {
	Method      string
	ErrorCode   int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.ErrorCode, e.Description)
}

// Config holds client configuration.
type Config struct {
	Token   string
	BaseURL string
	// RequestTimeout bounds non-polling calls.
	RequestTimeout time.Duration
	// PollTimeout is the longest long-poll the client will issue.
	PollTimeout time.Duration
}

// Client talks to the Bot API through tgbotapi.
type Client struct {
	config Config
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

// NewClient creates a Bot API client. The token is checked with getMe.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 25 * time.Second
	}

	// Context deadlines are raced in await; the client timeout caps the abandoned call.
	httpClient := &http.Client{Timeout: config.PollTimeout + config.RequestTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(config.Token, config.BaseURL+"/bot%s/%s", httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", convertError("getMe", err, config.Token))
	}

	return &Client{
		config: config,
		bot:    bot,
		logger: slog.Default(),
	}, nil
}

// SetLogger sets the logger.
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Username returns the bot's username as reported by getMe.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// GetUpdates long-polls for updates with id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+c.config.RequestTimeout)
	defer cancel()

	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = allowedUpdates

	raw, err := await(ctx, func() ([]tgbotapi.Update, error) {
		return c.bot.GetUpdates(cfg)
	})
	if err != nil {
		return nil, c.convertError("getUpdates", err)
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, fromAPIUpdate(u))
	}
	return updates, nil
}

// SendMessage sends text to chatID, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	cfg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		cfg.ReplyMarkup = toAPIMarkup(markup)
	}

	sent, err := await(ctx, func() (tgbotapi.Message, error) {
		return c.bot.Send(cfg)
	})
	if err != nil {
		return nil, c.convertError("sendMessage", err)
	}
	msg := fromAPIMessage(&sent)
	return msg, nil
}

// EditMessageText replaces the text and keyboard of a sent message.
// A nil markup removes the keyboard.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var cfg tgbotapi.EditMessageTextConfig
	if markup != nil {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, int(messageID), text, toAPIMarkup(markup))
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, int(messageID), text)
	}
	return c.request(ctx, "editMessageText", cfg)
}

// DeleteMessage deletes a sent message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	return c.request(ctx, "deleteMessage", tgbotapi.NewDeleteMessage(chatID, int(messageID)))
}

// AnswerCallbackQuery acknowledges a button press, showing text as a toast when non-empty.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	return c.request(ctx, "answerCallbackQuery", tgbotapi.NewCallback(callbackQueryID, text))
}

// request issues a call whose result is a bare true.
func (c *Client) request(ctx context.Context, method string, cfg tgbotapi.Chattable) error {
	_, err := await(ctx, func() (*tgbotapi.APIResponse, error) {
		return c.bot.Request(cfg)
	})
	if err != nil {
		return c.convertError(method, err)
	}
	return nil
}

func (c *Client) convertError(method string, err error) error {
	converted := convertError(method, err, c.config.Token)
	var apiErr *APIError
	if errors.As(converted, &apiErr) {
		c.logger.Warn("telegram api error",
			"method", method,
			"code", apiErr.ErrorCode,
			"description", apiErr.Description,
		)
	}
	return converted
}

// await runs fn and returns early when ctx is done. tgbotapi takes no context,
// so an abandoned call finishes in the background under the HTTP client timeout.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func convertError(method string, err error, token string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	var ptrErr *tgbotapi.Error
	if errors.As(err, &ptrErr) {
		return newAPIError(method, *ptrErr)
	}
	var valErr tgbotapi.Error
	if errors.As(err, &valErr) {
		return newAPIError(method, valErr)
	}

	// Transport errors carry the request URL, which embeds the token.
	return fmt.Errorf("telegram %s request failed: %w", method, redact(err, token))
}

func newAPIError(method string, err tgbotapi.Error) *APIError {
	return &APIError{
		Method:      method,
		ErrorCode:   err.Code,
		Description: err.Message,
		RetryAfter:  err.RetryAfter,
	}
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), cause: err}
}
