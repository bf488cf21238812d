package telegramimpl

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/viralink-scheduler/internal/telegram"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// sender is the subset of tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramImpl struct {
	bot    sender
	userID int64
	Logger logger.Logger
}

// New connects the bot. Without a token or target user the notifier runs
// detached and only logs what it would have sent.
func New(opts Opts) (*TelegramImpl, error) {
	log := opts.Logger.WithComponent("Telegram")
	impl := &TelegramImpl{
		userID: opts.Config.Telegram.User,
		Logger: log,
	}

	if opts.Config.Telegram.Token == "" || opts.Config.Telegram.User == 0 {
		log.Warn("Telegram token or user not configured, notifications are logged only")
		return impl, nil
	}

	tgBot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.Token)
	if err != nil {
		log.Error("Error creating bot", "Error", err)
		return nil, err
	}
	impl.bot = tgBot
	return impl, nil
}

var _ telegram.Client = (*TelegramImpl)(nil)
