package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// TelegramHandler is a slog.Handler that forwards records at or above
// minLevel to an admin chat, on top of a regular handler. Used so that
// unattended failures (webhook processing, payment sweep) reach a human.
type TelegramHandler struct {
	handler  slog.Handler
	bot      *gotgbot.Bot
	chatId   int64
	minLevel slog.Level
	mu       sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, apiKey string, chatId int64, minLevel slog.Level) (*TelegramHandler, error) {
	b, err := gotgbot.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramHandler{
		handler:  handler,
		bot:      b,
		chatId:   chatId,
		minLevel: minLevel,
		attrs:    make([]slog.Attr, 0),
	}, nil
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}

	if record.Level < h.minLevel {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}
	for _, attr := range h.attrs {
		if attr.Key == "error" {
			msg += fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
		} else {
			msg += sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		return true
	})

	if h.bot != nil {
		_, _ = h.bot.SendMessage(h.chatId, msg, &gotgbot.SendMessageOpts{ParseMode: "Markdown"})
	}
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		bot:      h.bot,
		chatId:   h.chatId,
		minLevel: h.minLevel,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		bot:      h.bot,
		chatId:   h.chatId,
		minLevel: h.minLevel,
		attrs:    h.attrs,
		group:    group,
	}
}

// sanitize escapes characters that break Telegram markdown parsing.
func sanitize(s string) string {
	r := strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")
	return r.Replace(s)
}
