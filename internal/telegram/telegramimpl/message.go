package telegramimpl

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SendMessageToUser sends a MarkdownV2 message to the configured operator.
// The caller is responsible for escaping.
func (tg *TelegramImpl) SendMessageToUser(message string) error {
	if tg.bot == nil {
		tg.Logger.Info("Notification dropped, bot not configured", "message", message)
		return nil
	}

	msg := tgbotapi.NewMessage(tg.userID, message)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := tg.bot.Send(msg); err != nil {
		tg.Logger.Error("Error sending message to user",
			"userID", tg.userID,
			"error", err)
		return fmt.Errorf("failed to send message: %w", err)
	}

	tg.Logger.Info("Message sent to user",
		"userID", tg.userID)
	return nil
}
