package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/roman-kulish/crane-telemetry/cmd/viewer/app"
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	var configPath string
	flag.StringVar(&configPath, "c", "", "Path to the viewer configuration file")
	flag.Usage = usage
	flag.Parse()

	if configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", configPath))
		os.Exit(1)
	}

	logLevel.Set(config.Settings.LogLevel)
	logger.Info("starting viewer", slog.String("mode", config.Mode))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s -c <config.yaml>

Follows the kinematic state of the crane, either from the live feed or by
replaying recorded history. In history mode playback is driven from stdin:

	play | pause | seek <frame> | skip <±frames> | speed <x>

Options:
`, filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}
