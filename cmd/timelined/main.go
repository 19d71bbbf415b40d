package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"timelined/internal/app"
	"timelined/pkg/config"
	"timelined/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config")
		envFile    = flag.String("env-file", "", "path to .env file")
		version    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("timelined", app.Version)
		return
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "load env file %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("startup_failed", "error", err.Error())
		os.Exit(1)
	}
	if err := a.Run(); err != nil {
		logger.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}
