// Copyright 2026 Foreman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"context"
	"log/slog"

	"github.com/foreman-dev/foreman/internal/config"
	"github.com/foreman-dev/foreman/internal/coordinator"
	"github.com/foreman-dev/foreman/internal/log"
	"github.com/foreman-dev/foreman/internal/metrics"
	"github.com/foreman-dev/foreman/internal/session"
	"github.com/foreman-dev/foreman/internal/tracing"
	"github.com/foreman-dev/foreman/pkg/llm"
	"github.com/foreman-dev/foreman/pkg/llm/providers"
	"github.com/foreman-dev/foreman/pkg/tools"
	"github.com/foreman-dev/foreman/pkg/tools/builtin"
	"github.com/foreman-dev/foreman/pkg/worker"
	"github.com/foreman-dev/foreman/pkg/workflow"
)

// App is the assembled engine: configuration, coordinator, and the
// resources that need closing at exit.
type App struct {
	Settings    *config.Settings
	Coordinator *coordinator.Coordinator
	Registry    *workflow.Registry
	Store       session.Store
	Logger      *slog.Logger

	tracingProvider *tracing.Provider
}

// Build assembles the engine from environment settings. Every
// configuration problem surfaces here, before the first task.
func Build(ctx context.Context) (*App, error) {
	settings, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return BuildWithSettings(ctx, settings)
}

// BuildWithSettings assembles the engine from explicit settings.
func BuildWithSettings(ctx context.Context, settings *config.Settings) (*App, error) {
	logger := log.New(log.FromEnv())
	slog.SetDefault(logger)

	tp, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        settings.TracingEnabled,
		ServiceName:    "foreman",
		ServiceVersion: version,
		Endpoint:       settings.OTLPEndpoint,
	})
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(settings)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := builtin.RegisterGitHubTools(registry); err != nil {
		return nil, err
	}
	if err := builtin.RegisterMarkdownTools(registry); err != nil {
		return nil, err
	}

	defs, err := config.LoadDefinitions(settings.WorkflowsFile)
	if err != nil {
		return nil, err
	}

	workers := make(workflow.WorkerRegistry, len(defs.Workers))
	for _, wcfg := range defs.Workers {
		w, err := worker.New(wcfg, provider, registry,
			worker.WithRetryCallback(func(attempt int, err error) {
				metrics.RecordProviderRetry(provider.Name())
			}))
		if err != nil {
			return nil, err
		}
		workers[w.Name()] = w
	}

	wfRegistry, err := workflow.NewRegistry(defs.Workflows, workers)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(settings)
	if err != nil {
		return nil, err
	}

	classifier := coordinator.NewClassifier(provider, settings.ConfidenceThreshold)

	return &App{
		Settings:        settings,
		Coordinator:     coordinator.New(wfRegistry, store, classifier),
		Registry:        wfRegistry,
		Store:           store,
		Logger:          logger,
		tracingProvider: tp,
	}, nil
}

// Close flushes traces and releases the session store.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if err := a.tracingProvider.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func buildProvider(settings *config.Settings) (llm.Provider, error) {
	if settings.Provider.Offline {
		return providers.NewOfflineProvider(), nil
	}

	httpProvider, err := providers.NewHTTPProvider(
		settings.Provider.BaseURL,
		providers.WithAPIKey(settings.Provider.APIKey),
	)
	if err != nil {
		return nil, err
	}

	var provider llm.Provider = httpProvider
	if settings.Provider.RequestsPerSecond > 0 {
		provider = llm.NewRateLimitedProvider(provider,
			settings.Provider.RequestsPerSecond, settings.Provider.Burst)
	}
	return provider, nil
}

func buildStore(settings *config.Settings) (session.Store, error) {
	if settings.Session.Backend == config.SessionBackendSQLite {
		return session.NewSQLiteStore(session.SQLiteConfig{
			Path: settings.Session.Path,
			WAL:  true,
		})
	}
	return session.NewMemoryStore(), nil
}
