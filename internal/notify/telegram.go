// Package notify sends outbound chat messages for the Telegram bridge.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
)

const (
	defaultSendTimeout = 10 * time.Second

	// ParseModeHTML selects Telegram's HTML message formatting.
	ParseModeHTML = string(tele.ModeHTML)
)

// Message is one outbound chat message.
type Message struct {
	ChatID    int64
	Text      string
	ParseMode string

	DisableWebPagePreview bool
}

// Sender delivers chat messages.
type Sender interface {
	SendMessage(ctx context.Context, msg Message) error
}

// TelegramClient sends messages through the Bot API. It never polls for
// updates; inbound updates arrive on the server's webhook route.
type TelegramClient struct {
	bot *tele.Bot
}

// NewTelegramClient creates a client for one bot token. An empty baseURL uses
// the public Bot API.
func NewTelegramClient(baseURL, token string) (*TelegramClient, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:   token,
		Client:  &http.Client{Timeout: defaultSendTimeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramClient{bot: bot}, nil
}

// SendMessage posts msg to the chat.
func (c *TelegramClient) SendMessage(ctx context.Context, msg Message) error {
	if c == nil || c.bot == nil {
		return fmt.Errorf("telegram client is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := &tele.SendOptions{
		ParseMode:             tele.ParseMode(msg.ParseMode),
		DisableWebPagePreview: msg.DisableWebPagePreview,
	}
	if _, err := c.bot.Send(tele.ChatID(msg.ChatID), msg.Text, opts); err != nil {
		// The request URL embeds the bot token.
		return fmt.Errorf("telegram sendMessage: %w", redactURLError(err))
	}
	return nil
}

func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
