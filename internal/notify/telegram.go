package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const telegramMaxMessageLen = 4096

// TelegramNotifier posts lead notifications to a Telegram chat through the
// Bot API.
type TelegramNotifier struct {
	chatID  string
	baseURL string
	client  *http.Client
}

// TelegramOption configures a TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithTelegramBaseURL overrides the Bot API endpoint (for testing).
func WithTelegramBaseURL(u string) TelegramOption {
	return func(t *TelegramNotifier) {
		t.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewTelegramNotifier creates a notifier for chatID.
func NewTelegramNotifier(token, chatID string, opts ...TelegramOption) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required (COURSEFORGE_TELEGRAM_BOT_TOKEN)")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram chat id is required (COURSEFORGE_TELEGRAM_CHAT_ID)")
	}
	t := &TelegramNotifier{
		chatID:  chatID,
		baseURL: "https://api.telegram.org/bot" + token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *TelegramNotifier) NotifyLead(ctx context.Context, lead Lead) error {
	return t.Send(ctx, lead.Text())
}

// Send posts text to the configured chat, split into Telegram-sized parts.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	for _, part := range SplitMessage(text, telegramMaxMessageLen) {
		params := url.Values{
			"chat_id": {t.chatID},
			"text":    {part},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendMessage", strings.NewReader(params.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.client.Do(req)
		if err != nil {
			return fmt.Errorf("sending Telegram message: %w", err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}
	return nil
}

// SplitMessage splits text into parts of at most maxLen bytes, preferring
// newline then space boundaries. Parts never split a UTF-8 sequence; a
// single rune wider than maxLen becomes its own part.
func SplitMessage(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		cutAt := runeBoundary(text, maxLen)
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > 0 {
			cutAt = idx + 1
		} else if idx := strings.LastIndex(text[:maxLen], " "); idx > 0 {
			cutAt = idx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

// runeBoundary backs n up to the start of the rune containing byte n. It
// returns at least the width of the first rune so splitting always advances.
func runeBoundary(text string, n int) int {
	cut := n
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(text)
		return size
	}
	return cut
}
