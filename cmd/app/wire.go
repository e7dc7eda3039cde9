//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/faq-clustering/internal/bootstrap"
	"github.com/yanqian/faq-clustering/internal/domain/faq"
	"github.com/yanqian/faq-clustering/internal/domain/search"
	"github.com/yanqian/faq-clustering/internal/infra/config"
	"github.com/yanqian/faq-clustering/internal/infra/metrics"
	httpiface "github.com/yanqian/faq-clustering/internal/interface/http"
	"github.com/yanqian/faq-clustering/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideFAQConfig,
		provideSearchConfig,
		provideFallbackCorpus,
		provideMetricsSink,
		providePostgresPool,
		provideFAQRepository,
		provideQuestionStore,
		provideVectorIndex,
		provideEmbedder,
		provideResultCache,
		provideCleanup,
		faq.NewService,
		search.NewService,
		wire.Bind(new(faq.MetricsSink), new(*metrics.PrometheusSink)),
		wire.Bind(new(httpiface.HTTPObserver), new(*metrics.PrometheusSink)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
