package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/netx"
)

// Client talks to one bot's slice of the Bot API. The endpoint is
// configurable so tests and self-hosted API servers can point it elsewhere.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient returns a Client for the given token. The http.Client's timeout
// must exceed the long-poll timeout passed to GetUpdates, or polls will be
// cut short.
func NewClient(endpoint string, token string, client *http.Client) *Client {
	return &Client{endpoint: endpoint, token: token, client: client}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.endpoint, c.token, method)
}

// call posts payload to a Bot API method and unmarshals the envelope's
// result into result when it is non-nil.
func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("error decoding %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s failed: %d %s", method, envelope.ErrorCode, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("error decoding %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for up to timeoutSec seconds. Passing the last seen
// update id plus one as offset acknowledges everything before it.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	payload := getUpdatesRequest{
		Offset:         offset,
		Timeout:        timeoutSec,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat. markup may be a *ReplyKeyboardMarkup, an
// *InlineKeyboardMarkup or nil.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup any) (*Message, error) {
	payload := sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: markup}
	var msg Message
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text (and inline keyboard) of a sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	payload := editMessageTextRequest{ChatID: chatID, MessageID: messageID, Text: text, ReplyMarkup: markup}
	return c.call(ctx, "editMessageText", payload, nil)
}

// AnswerCallbackQuery closes the progress indicator on a pressed inline
// button. Telegram redelivers unanswered callbacks, so handlers must always
// answer even when the action failed. showAlert pops the text as a modal
// instead of a toast.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string, showAlert bool) error {
	payload := answerCallbackQueryRequest{CallbackQueryID: callbackQueryID, Text: text, ShowAlert: showAlert}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// GetFile resolves a file id into a download path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var file File
	if err := c.call(ctx, "getFile", getFileRequest{FileID: fileID}, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DownloadFile streams the content behind a path returned by GetFile. The
// caller closes the reader.
func (c *Client) DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.endpoint, c.token, filePath)
	return netx.Download(ctx, c.client, url)
}
