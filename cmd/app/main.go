// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"telegram-classifieds-notify/internal/config"
	"telegram-classifieds-notify/internal/domain/model"
	pg "telegram-classifieds-notify/internal/infra/db/postgres"
	"telegram-classifieds-notify/internal/infra/logging"
	"telegram-classifieds-notify/internal/infra/metrics"
	"telegram-classifieds-notify/internal/infra/queue"
	red "telegram-classifieds-notify/internal/infra/redis"
	"telegram-classifieds-notify/internal/infra/sched"
	tele "telegram-classifieds-notify/internal/infra/telegram"
	"telegram-classifieds-notify/internal/infra/web"
	"telegram-classifieds-notify/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose output)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	replyLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	ledgerRepo := pg.NewOutboundMessageRepo(pool)
	ownerRepo := pg.NewOwnerLookupRepo(pool)
	dstRepo := pg.NewDestinationRepoCacheDecorator(pg.NewDestinationRepo(pool), redisClient, cfg.Redis.TTL)
	txManager := pg.NewTxManager(pool)

	// ---- Dispatch queue ----
	tasks := queue.New(cfg.Notify.QueueSize, logger)
	tasks.Start(ctx)
	defer tasks.Stop()

	// ---- Telegram ----
	bot, err := tele.NewBotAPI(cfg.Bot.Token, cfg.Notify.CallTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	messenger := tele.NewClient(bot, &cfg.Notify, logger)

	// ---- Use cases ----
	resolver := usecase.NewDestinationResolver(staticDestinations(cfg.Notify.Destinations), dstRepo, logger)
	notifyUC := usecase.NewNotifyUseCase(ledgerRepo, ownerRepo, txManager, resolver, messenger, tasks, cfg.Notify.MaxPhotosPerGroup, logger)

	// ---- Inbound replies ----
	receiver := tele.NewReceiver(bot, notifyUC, replyLimiter, &cfg.Bot, cfg.Notify.ReplyLimitPerMin, logger)
	var webhookUpdates web.UpdateHandler
	switch cfg.Bot.InboundMode {
	case "webhook":
		webhookUpdates = receiver
		logger.Info().Str("path", cfg.Bot.WebhookPath).Msg("inbound mode: webhook")
	default:
		go func() {
			if err := receiver.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
		logger.Info().Msg("inbound mode: polling")
	}

	// ---- Stats worker ----
	stats := sched.NewStatsWorker(cfg.Notify.StatsInterval, ledgerRepo, tasks, logger)
	go func() { _ = stats.Run(ctx) }()

	// ---- Web server ----
	auth := web.NewAuthManager(cfg.Web.JWTSecret, cfg.Web.TokenTTL)
	srv := web.NewServer(notifyUC, dstRepo, auth, webhookUpdates, cfg.Bot.WebhookPath, logger)
	go func() {
		if err := srv.Run(ctx, cfg.Web.Port); err != nil {
			logger.Error().Err(err).Msg("web server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}

// staticDestinations converts config aliases into resolver inputs. Config
// aliases are always active; deactivation is a DB concern.
func staticDestinations(aliases map[string]config.DestinationAlias) []model.Destination {
	out := make([]model.Destination, 0, len(aliases))
	for key, a := range aliases {
		out = append(out, model.Destination{
			Key:      key,
			ChatID:   a.ChatID,
			ThreadID: a.ThreadID,
			Name:     a.Name,
			Active:   true,
		})
	}
	return out
}
