package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"docindex/internal/cache"
	"docindex/internal/format"
	"docindex/internal/models"
	"docindex/internal/notify"
)

const (
	telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	telegramUsage = "Send a search term to find documents.\n" +
		"/search <term> searches filenames and tags.\n" +
		"An empty search lists the newest files."
	telegramNoResults    = "No files found"
	telegramSearchFailed = "Search failed"
)

type telegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *telegramMessage `json:"message"`
}

type telegramMessage struct {
	MessageID int64        `json:"message_id"`
	Chat      telegramChat `json:"chat"`
	Text      string       `json:"text"`
}

type telegramChat struct {
	ID int64 `json:"id"`
}

// handleTelegram acknowledges every update. Replies are sent in the
// background.
func (s *Server) handleTelegram(w http.ResponseWriter, r *http.Request) {
	defer s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	if s.webhookSecret != "" {
		presented := r.Header.Get(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.webhookSecret)) != 1 {
			s.log().Warn("telegram webhook secret mismatch", "remote_addr", r.RemoteAddr)
			return
		}
	}

	var update telegramUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		s.log().Warn("telegram update decode failed", "error", err)
		return
	}
	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return
	}

	chatID := update.Message.Chat.ID
	reply := s.telegramReply(r.Context(), update.Message.Text)
	if s.telegram == nil {
		s.log().Debug("telegram reply dropped; bridge not configured", "chat_id", chatID)
		return
	}

	msg := notify.Message{
		ChatID:                chatID,
		Text:                  reply,
		ParseMode:             notify.ParseModeHTML,
		DisableWebPagePreview: true,
	}
	s.goBackground(r.Context(), "telegram reply", func(ctx context.Context) error {
		err := s.telegram.SendMessage(ctx, msg)
		s.metrics.telegramSend(err)
		return err
	})
}

func (s *Server) telegramReply(ctx context.Context, text string) string {
	query, command := parseTelegramCommand(text)
	switch command {
	case "/start", "/help":
		return telegramUsage
	case "", "/search", "/s":
	default:
		return telegramUsage
	}

	files, err := s.files.Search(ctx, query, telegramSearchLimit)
	if err != nil {
		s.log().Error("telegram search failed", "query", query, "error", err)
		return telegramSearchFailed
	}
	s.metrics.search("telegram")
	if len(files) == 0 {
		return telegramNoResults
	}

	lines := make([]string, 0, len(files))
	for _, file := range files {
		lines = append(lines, s.telegramResultLine(file))
	}
	return strings.Join(lines, "\n")
}

func (s *Server) telegramResultLine(file models.File) string {
	return fmt.Sprintf(`<a href="%s">%s</a> (%s)`,
		html.EscapeString(s.deliveryLink(file.ID)),
		html.EscapeString(file.Filename),
		format.Size(file.Size),
	)
}

// deliveryLink returns the public URL of a file with the team credential
// embedded.
func (s *Server) deliveryLink(id string) string {
	link := s.publicURL + "/api/file/" + url.PathEscape(id)
	if s.linkToken != "" {
		link += "?" + cache.TokenParam + "=" + url.QueryEscape(s.linkToken)
	}
	return link
}

// parseTelegramCommand splits a leading bot command from its argument. A
// command addressed to a bot ("/search@docbot") loses the suffix. Text that
// is not a command is returned whole with an empty command.
func parseTelegramCommand(text string) (query string, command string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text, ""
	}
	head, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i+1:] + " " + rest
		head = head[:i]
	}
	head, _, _ = strings.Cut(head, "@")
	return strings.TrimSpace(rest), strings.ToLower(head)
}
