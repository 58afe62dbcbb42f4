//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/healapp/mealtrack/internal/bootstrap"
	"github.com/healapp/mealtrack/internal/domain/capture"
	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/profile"
	"github.com/healapp/mealtrack/internal/domain/reminder"
	"github.com/healapp/mealtrack/internal/domain/summary"
	"github.com/healapp/mealtrack/internal/infra/config"
	"github.com/healapp/mealtrack/internal/infra/healapi"
	httpiface "github.com/healapp/mealtrack/internal/interface/http"
	"github.com/healapp/mealtrack/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAPIClient,
		provideLocation,
		provideReminderConfig,
		provideProfileRepository,
		provideMealStore,
		provideImageStore,
		provideSummaryCache,
		profile.NewStore,
		ledger.NewService,
		capture.NewPipeline,
		summary.NewService,
		reminder.NewService,
		wire.Bind(new(profile.BudgetService), new(*healapi.Client)),
		wire.Bind(new(capture.Estimator), new(*healapi.Client)),
		wire.Bind(new(capture.Comparer), new(*healapi.Client)),
		wire.Bind(new(capture.Suggester), new(*healapi.Client)),
		wire.Bind(new(summary.Summarizer), new(*healapi.Client)),
		wire.Bind(new(reminder.CopyWriter), new(*healapi.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
