package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/pebble"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"deskwire-chat/internal/alert"
	"deskwire-chat/internal/cache"
	"deskwire-chat/internal/config"
	"deskwire-chat/internal/directory"
	"deskwire-chat/internal/drafts"
	"deskwire-chat/internal/engine"
	"deskwire-chat/internal/notify"
	"deskwire-chat/internal/remote"
	"deskwire-chat/internal/scheduler"
	"deskwire-chat/internal/typing"
	"deskwire-chat/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger := logger.New(cfg.Session.Environment)
	defer appLogger.Logger.Sync()

	db, err := pebble.Open(cfg.Storage.DataDir, &pebble.Options{})
	if err != nil {
		appLogger.Errorf("open draft store at %s: %v", cfg.Storage.DataDir, err)
		os.Exit(1)
	}
	defer db.Close()

	api := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout, appLogger)

	draftStore, err := drafts.NewStore(db, appLogger)
	if err != nil {
		appLogger.Errorf("load draft store: %v", err)
		os.Exit(1)
	}

	dir := directory.New(api, appLogger)
	messages := cache.New(api, appLogger)

	forwarder := buildForwarder(cfg, api)
	typingCoordinator := typing.NewCoordinator(forwarder, cfg.Timers.TypingExpiry, cfg.Timers.TypingDebounce, appLogger)

	alerter, err := buildAlerter(cfg, appLogger)
	if err != nil {
		appLogger.Errorf("configure alerter: %v", err)
		os.Exit(1)
	}
	dispatcher := notify.NewDispatcher(alerter, cfg.Session.UserID, appLogger)

	sendTimer := scheduler.New(draftStore, messages, cfg.Timers.ScheduleInterval, appLogger)

	eng := engine.New(cfg.Session.UserID, engine.Deps{
		Directory:     dir,
		Cache:         messages,
		Drafts:        draftStore,
		Scheduler:     sendTimer,
		Typing:        typingCoordinator,
		Notifications: dispatcher,
	}, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		appLogger.Warnf("initial conversation refresh: %v", err)
	}
	dispatcher.RequestPermission(ctx)

	appLogger.Infof("messaging engine started for user %s", cfg.Session.UserID)
	<-ctx.Done()

	appLogger.Infof("shutting down")
	eng.Close()
}

func buildForwarder(cfg *config.Config, api remote.API) typing.Forwarder {
	apiForwarder := typing.NewAPIForwarder(api)
	if cfg.Redis.Addr == "" {
		return apiForwarder
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	mirror := typing.NewRedisForwarder(client, cfg.Session.UserID, 0)
	return typing.NewMultiForwarder(apiForwarder, mirror)
}

func buildAlerter(cfg *config.Config, appLogger *logger.Logger) (notify.Alerter, error) {
	if cfg.Push.SubscriptionJSON == "" {
		return alert.NewLogAlerter(appLogger), nil
	}
	return alert.NewWebPushAlerter(
		cfg.Push.SubscriptionJSON,
		cfg.Push.VAPIDPublicKey,
		cfg.Push.VAPIDPrivateKey,
		cfg.Push.Subscriber,
		appLogger,
	)
}
