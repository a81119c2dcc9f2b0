package alert

import (
	"fmt"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"codepool/internal/config"
)

// Telegram pushes operational alerts to one admin chat. It is wired into
// the logging pipeline by logger.NewTelegramHandler rather than called from
// request code.
type Telegram struct {
	api    *tgbotapi.Bot
	chatId int64
}

func NewTelegram(conf config.TelegramConfig) (*Telegram, error) {
	if !conf.Enabled {
		return nil, nil
	}
	api, err := tgbotapi.NewBot(conf.ApiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return &Telegram{api: api, chatId: conf.ChatId}, nil
}

// SendMessage delivers one Markdown message, dropping it silently on
// failure. Alerts must never back-pressure the caller.
func (t *Telegram) SendMessage(msg string) {
	if t == nil || t.api == nil {
		return
	}
	_, _ = t.api.SendMessage(t.chatId, msg, &tgbotapi.SendMessageOpts{
		ParseMode: "Markdown",
	})
}

// Sanitize escapes Markdown reserved characters in dynamic text.
func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*"
	sanitized := ""
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized += "\\" + string(char)
		} else {
			sanitized += string(char)
		}
	}
	return sanitized
}
