package service

import (
	"context"

	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SchedulerService triggers the market and news cycles on their cron
// expressions. The cycles themselves stay directly invokable (run-once,
// tests) independent of any timer.
type SchedulerService interface {
	Start(ctx context.Context) error
}

type schedulerService struct {
	cfg       *config.Config
	log       *logger.Logger
	marketSvc *MarketDataService
	newsSvc   *NewsService
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(cfg *config.Config, log *logger.Logger, marketSvc *MarketDataService, newsSvc *NewsService) SchedulerService {
	return &schedulerService{
		cfg:       cfg,
		log:       log,
		marketSvc: marketSvc,
		newsSvc:   newsSvc,
	}
}

// Start registers both cycles and blocks until the context is done. Each
// trigger is a bounded invocation; there is no invocation lock, overlapping
// runs resolve through last-write-wins merge upserts.
func (s *schedulerService) Start(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(s.cfg.Pipeline.MarketCron, func() {
		if _, err := s.marketSvc.RunCycle(ctx); err != nil {
			s.log.Error("Market data cycle failed", logger.ErrorField(err))
		}
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc(s.cfg.Pipeline.NewsCron, func() {
		if _, err := s.newsSvc.RunNewsCycle(ctx); err != nil {
			s.log.Error("News cycle failed", logger.ErrorField(err))
		}
	}); err != nil {
		return err
	}

	c.Start()
	s.log.Info("Scheduler started",
		logger.StringField("market_cron", s.cfg.Pipeline.MarketCron),
		logger.StringField("news_cron", s.cfg.Pipeline.NewsCron),
	)

	<-ctx.Done()
	s.log.Info("Scheduler service stopping")
	<-c.Stop().Done()
	return nil
}
