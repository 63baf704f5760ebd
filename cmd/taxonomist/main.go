// Command taxonomist generates taxonomies from document corpora and labels
// every document against them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/taxonomist/internal/adapters/driven/ai"
	"github.com/custodia-labs/taxonomist/internal/adapters/driven/config/file"
	"github.com/custodia-labs/taxonomist/internal/adapters/driven/source"
	"github.com/custodia-labs/taxonomist/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/taxonomist/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/cli"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/services"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := wire()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}

	// cobra prints command errors itself.
	err = cli.Execute(ctx)
	cleanup()
	stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// wire builds the adapters and services and hands them to the CLI.
// The returned cleanup releases the run store.
func wire() (func(), error) {
	var configStore driven.ConfigStore
	fileConfig, err := file.NewConfigStore("")
	if err != nil {
		logger.Warn("config file unavailable, settings will not be saved: %v", err)
		configStore = memory.NewConfigStore()
	} else {
		configStore = fileConfig
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	models := ai.NewFactory(*settings)

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return nil, fmt.Errorf("opening prompt templates: %w", err)
	}

	cleanup := func() {}
	var runStore driven.RunStore
	store, err := sqlite.NewStore("")
	if err != nil {
		logger.Warn("run history unavailable, results will not be kept: %v", err)
		runStore = memory.NewRunStore()
	} else {
		runStore = store.RunStore()
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing run store: %v", err)
			}
		}
	}

	orchestrator := services.NewOrchestrator(models, promptStore)
	runService := services.NewRunService(orchestrator, runStore, models, promptStore)
	jobService := services.NewJobService(runService, 0)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Runs:           runService,
		Jobs:           jobService,
		Settings:       settingsService,
		Prompts:        promptStore,
		Sources:        source.NewLoader(),
		TaxonomyLoader: source.NewTaxonomyLoader(),
	})

	return cleanup, nil
}
