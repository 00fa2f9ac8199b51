package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/NasaVasa/cratedigger/internal/config"
	"github.com/NasaVasa/cratedigger/internal/delivery/telegram"
	"github.com/NasaVasa/cratedigger/internal/infra/db"
	"github.com/NasaVasa/cratedigger/internal/infra/discogs"
	"github.com/NasaVasa/cratedigger/internal/infra/ebay"
	"github.com/NasaVasa/cratedigger/internal/infra/log"
	"github.com/NasaVasa/cratedigger/internal/infra/metrics"
	"github.com/NasaVasa/cratedigger/internal/infra/ratelimit"
	"github.com/NasaVasa/cratedigger/internal/scheduler"
	"github.com/NasaVasa/cratedigger/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	cfg       config.Config
	bot       *telegram.Bot
	loops     *scheduler.Group
	refresher *usecase.Refresher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	cleanup := func() error { return db.Close(dbConn) }

	catalogRepo := db.NewCatalogRepository(dbConn)
	listingRepo := db.NewListingRepository(dbConn)
	queryRepo := db.NewSavedQueryRepository(dbConn)
	alertRepo := db.NewAlertRepository(dbConn)

	m := metrics.New()

	ebayClient := ebay.NewClient(ebay.Options{
		BaseURL:     cfg.EbayBaseURL,
		AppID:       cfg.EbayAppID,
		CertID:      cfg.EbayCertID,
		Timeout:     cfg.ProviderTimeout,
		SearchLimit: cfg.EbaySearchLimit,
	}, ratelimit.New("ebay", cfg.EbayCallsPerMin, logger), m, logger)
	discogsClient := discogs.NewClient(
		cfg.DiscogsBaseURL,
		cfg.DiscogsToken,
		&http.Client{Timeout: cfg.ProviderTimeout},
		ratelimit.New("discogs", cfg.DiscogsCallsPerMin, logger),
		m,
		logger,
	)

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	notifier := telegram.NewNotifier(api, logger)

	matcher := usecase.NewMatcher(catalogRepo, usecase.MatcherConfig{
		ScoreCutoff:    cfg.FuzzyScoreCutoff,
		CandidateLimit: cfg.FuzzyCandidateLimit,
	}, logger)
	scanner, err := usecase.NewScanner(ebayClient, matcher, listingRepo, cfg.EnrichmentCacheSize, m, logger)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	dispatcher := usecase.NewDispatcher(
		queryRepo,
		listingRepo,
		usecase.NewAlertDeduplicator(alertRepo),
		notifier,
		ebay.AffiliateLinker(cfg.AffiliateCampaignID),
		m,
		logger,
	)
	poller := usecase.NewPoller(queryRepo, scanner, dispatcher, logger)
	refresher := usecase.NewRefresher(catalogRepo, discogsClient, m, logger)
	cleaner := usecase.NewCleaner(listingRepo, alertRepo, cfg.ListingRetention, cfg.AlertRetention, m, logger)

	cleanupSchedule, err := cfg.CleanupCron()
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	loops := scheduler.NewGroup(
		scheduler.NewLoop("poll", scheduler.Interval(cfg.PollInterval), poller.PollOnce, m, logger),
		scheduler.NewLoop("refresh", scheduler.Interval(cfg.RefreshInterval), func(ctx context.Context) error {
			_, err := refresher.RefreshStale(ctx, cfg.RefreshMaxAge)
			return err
		}, m, logger),
		scheduler.NewLoop("cleanup", cleanupSchedule, cleaner.Run, m, logger),
	)

	handlers := telegram.NewHandlers(usecase.NewSearchUsecase(queryRepo, listingRepo), refresher, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout, logger)

	return &App{
		cfg:       cfg,
		bot:       bot,
		loops:     loops,
		refresher: refresher,
		metrics:   m,
		logger:    logger,
		cleanupFn: cleanup,
	}, nil
}

// Run blocks until ctx is cancelled. The scheduler loops, the metrics
// endpoint and the chat bot share ctx as their shutdown signal.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("cratedigger service starting")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if len(a.cfg.CatalogSeedIDs) > 0 {
		added := a.refresher.Seed(ctx, a.cfg.CatalogSeedIDs)
		a.logger.Info("catalog seeded", zap.Int("requested", len(a.cfg.CatalogSeedIDs)), zap.Int("added", added))
	}

	a.loops.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.metrics.Serve(ctx, a.cfg.MetricsAddr, a.logger); err != nil {
			a.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	a.logger.Info("cratedigger service started")
	err := a.bot.Start(ctx)
	cancel()
	wg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Shutdown() {
	a.logger.Info("cratedigger service shutting down")
	if !a.loops.Wait(a.cfg.ShutdownGracePeriod) {
		a.logger.Warn("scheduler loops did not stop within grace period", zap.Duration("grace_period", a.cfg.ShutdownGracePeriod))
	}
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
