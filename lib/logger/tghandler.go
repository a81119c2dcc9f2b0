package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"codepool/internal/alert"
)

// TelegramHandler is a slog.Handler that mirrors records at or above a
// minimum level to a Telegram admin chat, after passing them to the
// underlying handler.
type TelegramHandler struct {
	handler  slog.Handler
	tg       *alert.Telegram
	minLevel slog.Level
	mu       sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, tg *alert.Telegram, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		tg:       tg,
		minLevel: minLevel,
		attrs:    make([]slog.Attr, 0),
	}
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
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
			msg += alert.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += alert.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		return true
	})

	h.tg.SendMessage(msg)
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		tg:       h.tg,
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
		tg:       h.tg,
		minLevel: h.minLevel,
		attrs:    h.attrs,
		group:    group,
	}
}
