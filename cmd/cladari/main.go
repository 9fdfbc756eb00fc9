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
	"github.com/xaenox/cladari/internal/local"
	"github.com/xaenox/cladari/pkg/config"
	"github.com/xaenox/cladari/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("cladari", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "config.yaml", "path to the config file")
	localMode := flags.BoolP("local", "l", false, "answer from PlantDB only, without any model")
	flags.String("mode", "standard", "router mode: standard or quick")
	flags.String("log-level", "info", "log level")
	flags.Parse(os.Args[1:])

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plants := app.NewPlantClient(cfg, log)

	sh := &shell{in: os.Stdin, out: os.Stdout}
	if *localMode {
		sh.answer = local.NewResponder(plants, log).Query
		sh.label = "Cladari (local)"
		sh.banner = []string{"🌿 Cladari Local Test Mode", "(No AI models required - using PlantDB directly)"}
	} else {
		r, err := app.NewRouter(cfg, plants, log)
		if err != nil {
			log.Fatal("Failed to build router", zap.Error(err))
		}
		sh.answer = r.Query
		sh.label = "Cladari"
		sh.banner = []string{"🌿 Cladari AI - Interactive Mode"}
	}

	if err := sh.run(ctx, flags.Args()); err != nil {
		log.Error("Input error", zap.Error(err))
	}
}
