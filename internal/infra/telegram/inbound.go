package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/config"
	red "telegram-classifieds-notify/internal/infra/redis"
)

// updateSource is the polling slice of tgbotapi.BotAPI.
type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ReplyHandler traces a reply in a destination chat back to its entity and
// forwards it to the owner. Satisfied by the notify use case.
type ReplyHandler interface {
	HandleReply(ctx context.Context, chatID int64, messageID int, from, text string) error
}

// Receiver polls Telegram for updates and feeds replies to the handler.
// Used when bot.inbound_mode is "polling"; webhook mode shares HandleUpdate
// with the web server.
type Receiver struct {
	bot        updateSource
	handler    ReplyHandler
	limiter    *red.RateLimiter
	replyLimit int
	workers    int
	log        *zerolog.Logger
}

func NewReceiver(bot *tgbotapi.BotAPI, handler ReplyHandler, limiter *red.RateLimiter, cfg *config.BotConfig, replyLimit int, logger *zerolog.Logger) *Receiver {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	compLog := logger.With().Str("component", "TelegramReceiver").Logger()
	return &Receiver{
		bot:        bot,
		handler:    handler,
		limiter:    limiter,
		replyLimit: replyLimit,
		workers:    workers,
		log:        &compLog,
	}
}

// Run polls until ctx is canceled.
func (r *Receiver) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.HandleUpdate(ctx, update); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("error handling update")
					}
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// HandleUpdate processes one update. Only replies to previously sent
// messages are interesting; everything else is ignored.
func (r *Receiver) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.ReplyToMessage == nil {
		return nil
	}
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return nil
	}

	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, red.ReplyKey(msg.Chat.ID), r.replyLimit, time.Minute)
		if err != nil {
			// redis being down must not break reply forwarding
			r.log.Warn().Err(err).Msg("reply rate limiter unavailable")
		} else if !allowed {
			r.log.Debug().Int64("chat_id", msg.Chat.ID).Msg("reply dropped by rate limiter")
			return nil
		}
	}

	return r.handler.HandleReply(ctx, msg.Chat.ID, msg.ReplyToMessage.MessageID, displayName(msg.From), text)
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}
