package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NasaVasa/cratedigger/internal/app"
	"github.com/NasaVasa/cratedigger/internal/config"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file (overrides DOTENV_PATH)")
	checkConfig := flag.Bool("check-config", false, "validate configuration and exit")
	flag.Parse()

	if *envFile != "" {
		if err := os.Setenv("DOTENV_PATH", *envFile); err != nil {
			fmt.Fprintln(os.Stderr, "failed to set env file:", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if *checkConfig {
		fmt.Println("configuration ok")
		return
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize app:", err)
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	application.Shutdown()
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "application error:", runErr)
		os.Exit(1)
	}
}
