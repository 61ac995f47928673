package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func fromAPIUpdate(u tgbotapi.Update) Update {
	update := Update{UpdateID: int64(u.UpdateID)}
	if u.Message != nil {
		update.Message = fromAPIMessage(u.Message)
	}
	if q := u.CallbackQuery; q != nil {
		update.CallbackQuery = &CallbackQuery{
			ID:   q.ID,
			Data: q.Data,
		}
		if q.From != nil {
			update.CallbackQuery.From = fromAPIUser(q.From)
		}
		if q.Message != nil {
			update.CallbackQuery.Message = fromAPIMessage(q.Message)
		}
	}
	return update
}

func fromAPIMessage(m *tgbotapi.Message) *Message {
	msg := &Message{
		MessageID: int64(m.MessageID),
		Date:      int64(m.Date),
		Text:      m.Text,
	}
	if m.From != nil {
		from := fromAPIUser(m.From)
		msg.From = &from
	}
	if m.Chat != nil {
		msg.Chat = Chat{ID: m.Chat.ID, Type: m.Chat.Type}
	}
	return msg
}

func fromAPIUser(u *tgbotapi.User) User {
	return User{
		ID:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		Username:  u.UserName,
	}
}

func toAPIMarkup(markup *InlineKeyboardMarkup) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
