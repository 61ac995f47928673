package intake

import (
	"context"
	"log/slog"

	"github.com/hrygo/remindme/internal/observability"
	"github.com/hrygo/remindme/plugin/notification"
	"github.com/hrygo/remindme/plugin/telegram"
	"github.com/hrygo/remindme/server/conversation"
)

// promptKeyboard is attached to every parse result.
func promptKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Column(
		telegram.InlineKeyboardButton{Text: "Accept", CallbackData: conversation.CallbackData(conversation.Accept{})},
		telegram.InlineKeyboardButton{Text: "Repeat", CallbackData: conversation.CallbackData(conversation.Repeat{})},
		telegram.InlineKeyboardButton{Text: "Cancel", CallbackData: conversation.CallbackData(conversation.Cancel{})},
	)
}

// deleteKeyboard lets the user undo an accepted notification.
func deleteKeyboard(ids []int64) *telegram.InlineKeyboardMarkup {
	if len(ids) == 0 {
		return nil
	}
	return telegram.Column(telegram.InlineKeyboardButton{
		Text:         "Cancel",
		CallbackData: conversation.CallbackData(conversation.Delete{IDs: ids}),
	})
}

// present applies the outcome to the chat. Failures are logged; the state is already committed.
func (r *Runner) present(ctx context.Context, ulog *observability.UpdateLog, chatID int64, u telegram.Update, out conversation.Outcome) {
	var source *telegram.Message
	if u.CallbackQuery != nil {
		source = u.CallbackQuery.Message
	}

	var err error
	switch out.Kind {
	case conversation.OutcomeParsed:
		_, err = r.transport.SendMessage(ctx, chatID, r.render(out), promptKeyboard())

	case conversation.OutcomeRepeated:
		if source == nil {
			return
		}
		err = r.transport.EditMessageText(ctx, source.Chat.ID, source.MessageID, r.renderWithPrefix(out), promptKeyboard())

	case conversation.OutcomeAccepted:
		if source == nil {
			return
		}
		ulog.Info(ctx, "notification accepted", slog.Any(observability.LogFieldRecordIDs, out.IDs))
		err = r.transport.EditMessageText(ctx, source.Chat.ID, source.MessageID, r.renderWithPrefix(out), deleteKeyboard(out.IDs))

	case conversation.OutcomeCanceled, conversation.OutcomeDeleted:
		if source == nil {
			return
		}
		err = r.transport.DeleteMessage(ctx, source.Chat.ID, source.MessageID)
	}

	if err != nil {
		ulog.Error(ctx, "failed to present outcome", err, slog.String("outcome", string(out.Kind)))
	}
}

func (r *Runner) answer(ctx context.Context, ulog *observability.UpdateLog, u telegram.Update, feedback string) {
	if u.CallbackQuery == nil {
		return
	}
	if err := r.transport.AnswerCallbackQuery(ctx, u.CallbackQuery.ID, feedback); err != nil {
		ulog.Error(ctx, "failed to answer callback", err)
	}
}

// render shows a parse result as its wire JSON, or the parse error.
func (r *Runner) render(out conversation.Outcome) string {
	if out.ParseError != nil {
		return out.ParseError.Error()
	}
	return r.renderJSON(out.Notification)
}

func (r *Runner) renderWithPrefix(out conversation.Outcome) string {
	if out.ParseError != nil {
		return "Error: " + out.ParseError.Error()
	}
	return "Response: " + r.renderJSON(out.Notification)
}

func (r *Runner) renderJSON(n notification.Notification) string {
	if n == nil {
		return "{}"
	}
	data, err := notification.Marshal(n, r.location)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
