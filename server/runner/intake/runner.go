// Package intake polls the chat transport, feeds updates through the
// conversation state machine and presents the outcome.
package intake

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/remindme/internal/observability"
	"github.com/hrygo/remindme/internal/profile"
	"github.com/hrygo/remindme/plugin/telegram"
	"github.com/hrygo/remindme/server/conversation"
	"github.com/hrygo/remindme/server/middleware"
)

// Transport is the part of the Bot API the runner uses. *telegram.Client satisfies it.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
}

// Transitioner computes conversation transitions. *conversation.Machine satisfies it.
type Transitioner interface {
	Transition(ctx context.Context, chatID int64, state conversation.State, action conversation.Action) (conversation.Outcome, error)
}

type Runner struct {
	transport   Transport
	machine     Transitioner
	registry    *conversation.Registry
	limiter     *middleware.RateLimiter
	allowChat   func(int64) bool
	location    *time.Location
	interval    time.Duration
	pollTimeout time.Duration
	sem         *semaphore.Weighted
	metrics     *observability.Metrics
	logger      *slog.Logger

	offset int64
	wg     sync.WaitGroup

	// queues holds updates waiting behind a running worker, per chat.
	queuesMu sync.Mutex
	queues   map[int64][]telegram.Update
}

// NewRunner creates an intake runner configured from the profile.
func NewRunner(transport Transport, machine Transitioner, p *profile.Profile) *Runner {
	return &Runner{
		transport:   transport,
		machine:     machine,
		registry:    conversation.NewRegistry(),
		limiter:     middleware.NewRateLimiter(p.InterpretsPerMinute, 3),
		allowChat:   p.IsChatAllowed,
		location:    p.Location(),
		interval:    p.IntakeInterval,
		pollTimeout: p.PollTimeout,
		sem:         semaphore.NewWeighted(int64(max(p.IntakeConcurrency, 1))),
		metrics:     observability.NewMetrics(),
		logger:      slog.Default(),
		queues:      make(map[int64][]telegram.Update),
	}
}

// SetLogger sets a custom logger.
func (r *Runner) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Registry returns the per-chat conversation states.
func (r *Runner) Registry() *conversation.Registry {
	return r.registry
}

// Metrics returns the handled-update counters.
func (r *Runner) Metrics() *observability.Metrics {
	return r.metrics
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("intake runner started", "interval", r.interval, "poll_timeout", r.pollTimeout)
	defer r.wg.Wait()

	for {
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("intake cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("intake runner stopped")
			return
		case <-time.After(r.interval):
		}
	}
}

// RunOnce polls one batch of updates and dispatches them. Chats are handled
// concurrently; updates of one chat are handled in arrival order, across batches.
// It does not wait for the handlers to finish; Wait does.
func (r *Runner) RunOnce(ctx context.Context) error {
	updates, err := r.transport.GetUpdates(ctx, r.offset, r.pollTimeout)
	if err != nil {
		return err
	}

	for _, u := range updates {
		r.offset = u.UpdateID + 1

		chatID, ok := u.ChatID()
		if !ok {
			continue
		}
		if !r.allowChat(chatID) {
			r.logger.Debug("ignoring update from unknown chat", "chat_id", chatID, "update_id", u.UpdateID)
			continue
		}

		if err := r.dispatch(ctx, chatID, u); err != nil {
			return err
		}
	}
	return nil
}

// dispatch appends u to the chat's queue, starting a worker when none is running.
func (r *Runner) dispatch(ctx context.Context, chatID int64, u telegram.Update) error {
	r.queuesMu.Lock()
	if pending, running := r.queues[chatID]; running {
		r.queues[chatID] = append(pending, u)
		r.queuesMu.Unlock()
		return nil
	}
	r.queuesMu.Unlock()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	// Only RunOnce dispatches, so no worker for chatID can have started meanwhile.
	r.queuesMu.Lock()
	r.queues[chatID] = []telegram.Update{}
	r.queuesMu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.sem.Release(1)
		r.drain(ctx, chatID, u)
	}()
	return nil
}

// drain handles u, then every update queued behind it for the chat.
func (r *Runner) drain(ctx context.Context, chatID int64, u telegram.Update) {
	for {
		r.handle(ctx, chatID, u)

		r.queuesMu.Lock()
		pending := r.queues[chatID]
		if len(pending) == 0 {
			delete(r.queues, chatID)
			r.queuesMu.Unlock()
			return
		}
		u = pending[0]
		r.queues[chatID] = pending[1:]
		r.queuesMu.Unlock()
	}
}
// Wait blocks until every dispatched update has been handled.
func (r *Runner) Wait() {
	r.wg.Wait()
}
