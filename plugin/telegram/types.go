package telegram

// Update is an incoming update from getUpdates.
type Update struct {
	UpdateID      int64
	Message       *Message
	CallbackQuery *CallbackQuery
}

// ChatID returns the chat the update belongs to, if any.
func (u *Update) ChatID() (int64, bool) {
	switch {
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From.ID, true
	case u.Message != nil:
		return u.Message.Chat.ID, true
	default:
		return 0, false
	}
}

// User is a Telegram user or bot.
type User struct {
	ID        int64
	IsBot     bool
	FirstName string
	Username  string
}

// Chat is a Telegram chat.
type Chat struct {
	ID   int64
	Type string
}

// Message is a Telegram message.
type Message struct {
	MessageID int64
	From      *User
	Chat      Chat
	Date      int64
	Text      string
}

// CallbackQuery is a press on an inline keyboard button.
type CallbackQuery struct {
	ID      string
	From    User
	Message *Message
	Data    string
}

// InlineKeyboardMarkup is an inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton
}

// InlineKeyboardButton is one button of an inline keyboard.
type InlineKeyboardButton struct {
	Text         string
	CallbackData string
}

// Column lays buttons out one per row.
func Column(buttons ...InlineKeyboardButton) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineKeyboardButton{b})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
