package intake

import (
	"context"
	"log/slog"

	apperrors "github.com/hrygo/remindme/internal/errors"
	"github.com/hrygo/remindme/internal/observability"
	"github.com/hrygo/remindme/plugin/telegram"
	"github.com/hrygo/remindme/server/conversation"
)

func (r *Runner) handle(ctx context.Context, chatID int64, u telegram.Update) {
	action, ok := r.decode(u)
	if !ok {
		return
	}

	ulog := observability.NewUpdateLog(r.logger, action.Name(), chatID)
	ctx = observability.WithUpdateLog(ctx, ulog)
	ulog.Debug(ctx, "handling update", slog.Int64("update_id", u.UpdateID))

	outcome, err := r.apply(ctx, chatID, action)
	if err != nil {
		r.metrics.RecordFailure(action.Name())
		ulog.Error(ctx, "transition aborted", err,
			slog.String(observability.LogFieldErrorCode, string(apperrors.GetCodeFromError(err, ""))))
		r.answer(ctx, ulog, u, "")
		return
	}

	r.present(ctx, ulog, chatID, u, outcome)
	r.answer(ctx, ulog, u, outcome.Feedback)

	elapsed := ulog.Elapsed()
	r.metrics.RecordRequest(action.Name(), elapsed)
	ulog.Info(ctx, "update handled",
		slog.String("outcome", string(outcome.Kind)),
		slog.String("state", outcome.State.Name()),
		slog.Int64(observability.LogFieldDuration, elapsed.Milliseconds()),
	)
}

// decode turns an update into an action. Messages without text are skipped.
func (r *Runner) decode(u telegram.Update) (conversation.Action, bool) {
	if q := u.CallbackQuery; q != nil {
		action, err := conversation.ParseCallback(q.Data)
		if err != nil {
			r.logger.Warn("unrecognized callback data", "update_id", u.UpdateID, "error", err)
		}
		return action, true
	}
	if m := u.Message; m != nil && m.Text != "" {
		return conversation.Text{Text: m.Text}, true
	}
	return nil, false
}

func (r *Runner) apply(ctx context.Context, chatID int64, action conversation.Action) (conversation.Outcome, error) {
	var outcome conversation.Outcome
	err := r.registry.Apply(ctx, chatID, func(state conversation.State) (conversation.State, error) {
		// The rate-limit wait holds the chat slot so updates commit in arrival order.
		if needsInterpreter(action) {
			if err := r.limiter.Wait(ctx, chatID); err != nil {
				return nil, err
			}
		}
		out, err := r.machine.Transition(ctx, chatID, state, action)
		if err != nil {
			return nil, err
		}
		outcome = out
		return out.State, nil
	})
	return outcome, err
}

// needsInterpreter reports whether action may call the interpreter.
func needsInterpreter(action conversation.Action) bool {
	switch action.(type) {
	case conversation.Text, conversation.Repeat:
		return true
	default:
		return false
	}
}
