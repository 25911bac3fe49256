// Package telegram is a minimal client for the Telegram Bot API: identity,
// long-poll updates and HTML messages with a reply keyboard.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// DefaultBaseURL is the public Bot API root.
const DefaultBaseURL = "https://api.telegram.org"

// maxResponseBytes bounds any Bot API response body.
const maxResponseBytes = 4 << 20

// Client is the REST client for one bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client. An empty baseURL uses DefaultBaseURL. timeout
// must exceed the long-poll timeout passed to GetUpdates.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 35 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// envelope is the common Bot API response wrapper.
type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// User is the subset of the Bot API User object the bot reads.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat is the subset of the Bot API Chat object the bot reads.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// IncomingMessage is the subset of the Bot API Message object the bot reads.
type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text"`
}

// Update is one entry returned by getUpdates.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message,omitempty"`
}

type keyboardButton struct {
	Text string `json:"text"`
}

type replyKeyboard struct {
	Keyboard       [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64          `json:"chat_id"`
	Text        string         `json:"text"`
	ParseMode   string         `json:"parse_mode"`
	ReplyMarkup *replyKeyboard `json:"reply_markup,omitempty"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	var u User
	if err := c.call(ctx, "getMe", nil, &u); err != nil {
		return User{}, fmt.Errorf("telegram: get me: %w", err)
	}
	return u, nil
}

// GetUpdates long-polls for message updates with update_id >= offset,
// blocking for at most timeout seconds server side.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	req := getUpdatesRequest{Offset: offset, Timeout: timeout, AllowedUpdates: []string{"message"}}
	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, fmt.Errorf("telegram: get updates: %w", err)
	}
	return updates, nil
}

// SendMessage sends HTML text to chatID with keyboard as a resized reply
// keyboard. A nil keyboard leaves the chat's current keyboard in place.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard domain.Keyboard) error {
	req := sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "HTML"}
	if keyboard != nil {
		kb := &replyKeyboard{Keyboard: make([][]keyboardButton, 0, len(keyboard)), ResizeKeyboard: true}
		for _, row := range keyboard {
			buttons := make([]keyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, keyboardButton{Text: label})
			}
			kb.Keyboard = append(kb.Keyboard, buttons)
		}
		req.ReplyMarkup = kb
	}
	if err := c.call(ctx, "sendMessage", req, nil); err != nil {
		return fmt.Errorf("telegram: send message to %d: %w", chatID, err)
	}
	return nil
}

// Send implements domain.Notifier.
func (c *Client) Send(ctx context.Context, to domain.RecipientID, msg domain.Message) error {
	return c.SendMessage(ctx, int64(to), msg.Text, msg.Keyboard)
}

func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; never surface it.
		return fmt.Errorf("http request: %w", redactURLError(err, c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, 200))
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.OK {
		return fmt.Errorf("api error %d: %s", env.ErrorCode, env.Description)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func redactURLError(err error, token string) error {
	if token == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), token, "***")
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}

var _ domain.Notifier = (*Client)(nil)
