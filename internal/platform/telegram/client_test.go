package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "reward-bot/internal/common/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("123:abc", srv.URL)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestSendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "hi", r.PostForm.Get("text"))
		assert.Equal(t, "Markdown", r.PostForm.Get("parse_mode"))

		var markup InlineKeyboardMarkup
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("reply_markup")), &markup))
		assert.Equal(t, "check_join", markup.InlineKeyboard[0][0].CallbackData)

		writeJSON(w, map[string]any{"ok": true, "result": map[string]any{"message_id": 7, "chat": map[string]any{"id": 42}}})
	})

	msg, err := c.SendMessage(context.Background(), "42", "hi", SendOptions{
		ParseMode: "Markdown",
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: "check", CallbackData: "check_join"}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.MessageID)
	assert.Equal(t, int64(42), msg.Chat.ID)
}

func TestAPIErrorIsTyped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(w, map[string]any{"ok": false, "error_code": 403, "description": "Forbidden: bot was blocked by the user"})
	})

	_, err := c.SendMessage(context.Background(), "42", "hi", SendOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTelegramAPI))
	assert.Contains(t, err.Error(), "blocked")
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		writeJSON(w, map[string]any{"ok": false, "error_code": 429, "description": "Too Many Requests", "parameters": map[string]any{"retry_after": 3}})
	})

	_, err := c.GetChatMember(context.Background(), "@chan", "1")
	var rps *RPSError
	require.True(t, errors.As(err, &rps))
	assert.Equal(t, "3s", rps.RetryAfter.String())
}

func TestGetChatMemberAndUpdates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch {
		case strings.HasSuffix(r.URL.Path, "/getChatMember"):
			assert.Equal(t, "@chan", r.PostForm.Get("chat_id"))
			writeJSON(w, map[string]any{"ok": true, "result": map[string]any{"status": "member", "user": map[string]any{"id": 1}}})
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			assert.Equal(t, "10", r.PostForm.Get("offset"))
			writeJSON(w, map[string]any{"ok": true, "result": []any{
				map[string]any{"update_id": 10, "message": map[string]any{"message_id": 1, "text": "/start", "chat": map[string]any{"id": 5}, "from": map[string]any{"id": 5}}},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	m, err := c.GetChatMember(context.Background(), "@chan", "1")
	require.NoError(t, err)
	assert.Equal(t, "member", m.Status)

	ups, err := c.GetUpdates(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, "/start", ups[0].Message.Text)
	assert.Equal(t, int64(5), ups[0].Message.From.ID)
}

func TestGetFileAndDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bot123:abc/getFile":
			writeJSON(w, map[string]any{"ok": true, "result": map[string]any{"file_id": "f1", "file_path": "documents/file_1.txt"}})
		case "/file/bot123:abc/documents/file_1.txt":
			_, _ = io.WriteString(w, "A---B")
		default:
			http.NotFound(w, r)
		}
	})

	f, err := c.GetFile(context.Background(), "f1")
	require.NoError(t, err)
	data, err := c.DownloadFile(context.Background(), f.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "A---B", string(data))

	_, err = c.DownloadFile(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTelegramAPI))
}

func TestSendDocumentMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendDocument", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("chat_id"))
		assert.Equal(t, "history", r.FormValue("caption"))

		f, hdr, err := r.FormFile("document")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "bot.txt", hdr.Filename)
		body, _ := io.ReadAll(f)
		assert.Equal(t, "content", string(body))

		writeJSON(w, map[string]any{"ok": true, "result": map[string]any{"message_id": 1, "chat": map[string]any{"id": 42}}})
	})

	err := c.SendDocument(context.Background(), "42", "bot.txt", []byte("content"), "history", SendOptions{})
	require.NoError(t, err)
}

func TestMessageContentType(t *testing.T) {
	assert.Equal(t, "text", (&Message{Text: "x"}).ContentType())
	assert.Equal(t, "photo", (&Message{Photo: []PhotoSize{{FileID: "p"}}}).ContentType())
	assert.Equal(t, "document", (&Message{Document: &Document{FileID: "d"}}).ContentType())
	assert.Equal(t, "other", (&Message{}).ContentType())
}
