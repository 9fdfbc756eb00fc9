package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/app"
	"github.com/xaenox/cladari/internal/bot"
	"github.com/xaenox/cladari/internal/chat"
	"github.com/xaenox/cladari/pkg/config"
	"github.com/xaenox/cladari/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("cladari-bot", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "config.yaml", "path to the config file")
	flags.String("mode", "standard", "router mode: standard or quick")
	flags.String("log-level", "info", "log level")
	flags.Parse(os.Args[1:])

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath, flags)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		zap.NewExample().Fatal("Failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	if cfg.Telegram.Token == "" {
		log.Fatal("Telegram token is not set (telegram.token or TELEGRAM_TOKEN)")
	}

	store, err := app.NewStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	r, err := app.NewRouter(cfg, app.NewPlantClient(cfg, log), log)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	b, err := bot.New(cfg.Telegram.Token, chat.NewService(r, store, log), app.ModelNames(cfg), log)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		log.Fatal("Bot error", zap.Error(err))
	}
}
