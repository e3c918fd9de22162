package main

import (
	"log"
	"os"

	"github.com/t-lnarr/plant/cmd"
	"github.com/t-lnarr/plant/internal/conf"
	"github.com/t-lnarr/plant/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
