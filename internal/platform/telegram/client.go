package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "reward-bot/internal/common/errors"
)

const DefaultAPIURL = "https://api.telegram.org"

// Client speaks the Telegram Bot API over plain HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// RPSError is returned when Telegram answers 429 Too Many Requests.
type RPSError struct {
	Msg        string
	RetryAfter time.Duration
}

func (e *RPSError) Error() string {
	return e.Msg
}

type tgResponse[T any] struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Result      T      `json:"result"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		// must stay above the getUpdates long-poll timeout
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var out User
	if err := c.call(ctx, "getMe", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(timeoutSec)},
		"allowed_updates": {`["message","callback_query"]`},
	}
	var out []Update
	if err := c.call(ctx, "getUpdates", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID, text string, opts SendOptions) (*Message, error) {
	params := url.Values{
		"chat_id": {chatID},
		"text":    {text},
	}
	if err := applyOptions(params, opts); err != nil {
		return nil, err
	}
	var out Message
	if err := c.call(ctx, "sendMessage", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error {
	params := url.Values{
		"chat_id":    {chatID},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"text":       {text},
	}
	var out json.RawMessage
	return c.call(ctx, "editMessageText", params, &out)
}

func (c *Client) SendPhoto(ctx context.Context, chatID, fileID, caption string) error {
	params := url.Values{
		"chat_id": {chatID},
		"photo":   {fileID},
	}
	if caption != "" {
		params.Set("caption", caption)
	}
	var out Message
	return c.call(ctx, "sendPhoto", params, &out)
}

func (c *Client) CopyMessage(ctx context.Context, chatID, fromChatID string, messageID int64) error {
	params := url.Values{
		"chat_id":      {chatID},
		"from_chat_id": {fromChatID},
		"message_id":   {strconv.FormatInt(messageID, 10)},
	}
	var out json.RawMessage
	return c.call(ctx, "copyMessage", params, &out)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	params := url.Values{"callback_query_id": {callbackID}}
	if text != "" {
		params.Set("text", text)
	}
	if showAlert {
		params.Set("show_alert", "true")
	}
	var out bool
	return c.call(ctx, "answerCallbackQuery", params, &out)
}

func (c *Client) GetChatMember(ctx context.Context, chatID, userID string) (*ChatMember, error) {
	params := url.Values{
		"chat_id": {chatID},
		"user_id": {userID},
	}
	var out ChatMember
	if err := c.call(ctx, "getChatMember", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var out File
	if err := c.call(ctx, "getFile", url.Values{"file_id": {fileID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadFile fetches the content behind a getFile file_path.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, strings.TrimLeft(filePath, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewTelegramAPIError("download file", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTelegramAPIError("download file", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewTelegramAPIError("download file", fmt.Errorf("status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTelegramAPIError("download file", err)
	}
	return body, nil
}

// SendDocument uploads data as a new file named fileName.
func (c *Client) SendDocument(ctx context.Context, chatID, fileName string, data []byte, caption string, opts SendOptions) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := url.Values{"chat_id": {chatID}}
	if caption != "" {
		fields.Set("caption", caption)
	}
	if err := applyOptions(fields, opts); err != nil {
		return err
	}
	for k, vs := range fields {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				return apperrors.NewTelegramAPIError("sendDocument", err)
			}
		}
	}
	part, err := w.CreateFormFile("document", fileName)
	if err != nil {
		return apperrors.NewTelegramAPIError("sendDocument", err)
	}
	if _, err := part.Write(data); err != nil {
		return apperrors.NewTelegramAPIError("sendDocument", err)
	}
	if err := w.Close(); err != nil {
		return apperrors.NewTelegramAPIError("sendDocument", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &body)
	if err != nil {
		return apperrors.NewTelegramAPIError("sendDocument", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out tgResponse[Message]
	return c.do(req, "sendDocument", &out)
}

func applyOptions(params url.Values, opts SendOptions) error {
	if opts.ParseMode != "" {
		params.Set("parse_mode", opts.ParseMode)
	}
	if opts.ReplyMarkup != nil {
		raw, err := json.Marshal(opts.ReplyMarkup)
		if err != nil {
			return apperrors.NewTelegramAPIError("encode reply_markup", err)
		}
		params.Set("reply_markup", string(raw))
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, result any) error {
	if params == nil {
		params = url.Values{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), strings.NewReader(params.Encode()))
	if err != nil {
		return apperrors.NewTelegramAPIError(method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	env := tgResponse[json.RawMessage]{}
	if err := c.do(req, method, &env); err != nil {
		return err
	}
	if len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return apperrors.NewTelegramAPIError(method, fmt.Errorf("failed to parse result: %w", err))
	}
	return nil
}

type envelope interface {
	status() (ok bool, code int, description string, retryAfter int)
}

func (r *tgResponse[T]) status() (bool, int, string, int) {
	retry := 0
	if r.Parameters != nil {
		retry = r.Parameters.RetryAfter
	}
	return r.Ok, r.ErrorCode, r.Description, retry
}

func (c *Client) do(req *http.Request, method string, out envelope) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTelegramAPIError(method, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewTelegramAPIError(method, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err))
	}

	ok, code, description, retryAfter := out.status()
	if ok {
		return nil
	}
	if code == http.StatusTooManyRequests || resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.NewTelegramAPIError(method, &RPSError{
			Msg:        "too many requests: " + description,
			RetryAfter: time.Duration(retryAfter) * time.Second,
		})
	}
	return apperrors.NewTelegramAPIError(method, fmt.Errorf("telegram API error %d: %s", code, description)).
		WithDetail("error_code", code)
}
