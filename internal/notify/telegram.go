package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Linecast/models"
)

// TelegramNotifier pushes high-conviction picks to a Telegram channel
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat
func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// NotifyPick sends one ensemble result as a formatted message
func (n *TelegramNotifier) NotifyPick(ctx context.Context, result *models.EnsembleResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := fmt.Sprintf(
		"🎯 %s pick\nGame: %s\n%s %.1f (line %.1f, edge %+.1f)\nConfidence: %.0f%%",
		result.Recommendation,
		result.GameID,
		result.Direction,
		result.CalculatedTotal,
		result.MarketLine,
		result.Edge,
		result.Confidence*100,
	)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	n.logger.Info().Str("game_id", result.GameID).Str("recommendation", result.Recommendation).Msg("pick notification sent")
	return nil
}
