package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Form   url.Values
}

const getMeResponse = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Reminder","username":"remindme_bot"}}`

type fakeAPI struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses map[string]string
}

func newFakeAPI(t *testing.T, responses map[string]string) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{responses: responses}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		method := strings.TrimPrefix(r.URL.Path, "/bottest-token/")
		assert.NoError(t, r.ParseForm())

		api.mu.Lock()
		api.calls = append(api.calls, recordedCall{Method: method, Form: r.PostForm})
		resp, ok := api.responses[method]
		api.mu.Unlock()

		if !ok {
			resp = `{"ok":true,"result":true}`
			if method == "getMe" {
				resp = getMeResponse
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Token: "test-token", BaseURL: srv.URL + "/", RequestTimeout: time.Second})
	require.NoError(t, err)
	return api, client
}

func (a *fakeAPI) last() recordedCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[len(a.calls)-1]
}

func TestGetUpdates(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"getUpdates": `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"chat":{"id":42},"text":"remind me"}},
			{"update_id":11,"callback_query":{"id":"cb1","from":{"id":42},"message":{"message_id":2,"chat":{"id":42}},"data":"accept"}}
		]}`,
	})

	updates, err := client.GetUpdates(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, int64(10), updates[0].UpdateID)
	assert.Equal(t, "remind me", updates[0].Message.Text)
	chatID, ok := updates[0].ChatID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), chatID)

	assert.Equal(t, "accept", updates[1].CallbackQuery.Data)
	chatID, ok = updates[1].ChatID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), chatID)

	call := api.last()
	assert.Equal(t, "getUpdates", call.Method)
	assert.Equal(t, "10", call.Form.Get("offset"))
	assert.Equal(t, `["message","callback_query"]`, call.Form.Get("allowed_updates"))
}

func TestSendMessageWithKeyboard(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"sendMessage": `{"ok":true,"result":{"message_id":77,"chat":{"id":42},"text":"hi"}}`,
	})

	msg, err := client.SendMessage(context.Background(), 42, "hi", Column(
		InlineKeyboardButton{Text: "Accept", CallbackData: "accept"},
		InlineKeyboardButton{Text: "Cancel", CallbackData: "cancel"},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(77), msg.MessageID)

	call := api.last()
	assert.Equal(t, "sendMessage", call.Method)
	assert.Equal(t, "42", call.Form.Get("chat_id"))
	assert.Equal(t, "hi", call.Form.Get("text"))

	var markup struct {
		InlineKeyboard [][]struct {
			Text         string `json:"text"`
			CallbackData string `json:"callback_data"`
		} `json:"inline_keyboard"`
	}
	require.NoError(t, json.Unmarshal([]byte(call.Form.Get("reply_markup")), &markup))
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "accept", markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "Cancel", markup.InlineKeyboard[1][0].Text)
}

func TestEditDeleteAnswer(t *testing.T) {
	api, client := newFakeAPI(t, nil)
	ctx := context.Background()

	require.NoError(t, client.EditMessageText(ctx, 42, 7, "Response: {}", nil))
	call := api.last()
	assert.Equal(t, "editMessageText", call.Method)
	assert.Equal(t, "7", call.Form.Get("message_id"))
	assert.False(t, call.Form.Has("reply_markup"))

	require.NoError(t, client.DeleteMessage(ctx, 42, 7))
	assert.Equal(t, "deleteMessage", api.last().Method)

	require.NoError(t, client.AnswerCallbackQuery(ctx, "cb1", "Canceled"))
	call = api.last()
	assert.Equal(t, "answerCallbackQuery", call.Method)
	assert.Equal(t, "cb1", call.Form.Get("callback_query_id"))
	assert.Equal(t, "Canceled", call.Form.Get("text"))
}

func TestAPIError(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{
		"sendMessage": `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`,
	})

	_, err := client.SendMessage(context.Background(), 42, "hi", nil)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.ErrorCode)
	assert.Contains(t, apiErr.Description, "blocked")
}

func TestNewClientUsesGetMe(t *testing.T) {
	api, client := newFakeAPI(t, nil)
	assert.Equal(t, "getMe", api.calls[0].Method)
	assert.Equal(t, "remindme_bot", client.Username())
}

func TestTransportErrorHidesToken(t *testing.T) {
	_, err := NewClient(Config{Token: "secret-token", BaseURL: "http://127.0.0.1:1", RequestTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestGetUpdatesHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			_, _ = w.Write([]byte(getMeResponse))
			return
		}
		<-release
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewClient(Config{Token: "test-token", BaseURL: srv.URL, RequestTimeout: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = client.GetUpdates(ctx, 0, 10*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
