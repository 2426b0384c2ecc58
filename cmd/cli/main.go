package main

import (
	"os"

	"github.com/studira/studira/internal/client/cli"
	"github.com/studira/studira/internal/client/config"
	"github.com/studira/studira/internal/logging"
)

func main() {

	cfg := config.LoadConfig()
	log := logging.New(os.Stderr, cfg.LogLevel)

	app := cli.NewApp(cfg, log)

	if err := app.Execute(); err != nil {
		os.Exit(1)
	}

}
