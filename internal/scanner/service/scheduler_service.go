package service

import (
	"context"

	"reddit-lead-scout/internal/scanner/config"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the scan and digest jobs on their cron schedules.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop() context.Context
}

// NewSchedulerService creates a new cron scheduler wrapping the scan and
// digest services.
func NewSchedulerService(cfg *config.Config, log *logger.Logger, scanSvc ScanService, digestSvc DigestService) SchedulerService {
	return &schedulerService{
		cfg:       cfg,
		log:       log,
		scanSvc:   scanSvc,
		digestSvc: digestSvc,
		cron:      cron.New(),
	}
}

type schedulerService struct {
	cfg       *config.Config
	log       *logger.Logger
	scanSvc   ScanService
	digestSvc DigestService
	cron      *cron.Cron
}

// Start registers the jobs and starts the cron loop. Jobs inherit ctx so an
// in-flight run stops with the service.
func (s *schedulerService) Start(ctx context.Context) error {
	if s.cfg.Scanner.Cron != "" {
		_, err := s.cron.AddFunc(s.cfg.Scanner.Cron, func() {
			if _, err := s.scanSvc.Scan(ctx, dto.ScanRequest{}); err != nil {
				s.log.ErrorContext(ctx, "Scheduled scan failed", logger.ErrorField(err))
			}
		})
		if err != nil {
			return err
		}
	}

	if s.cfg.Digest.Cron != "" {
		_, err := s.cron.AddFunc(s.cfg.Digest.Cron, func() {
			if _, err := s.digestSvc.Send(ctx); err != nil {
				s.log.ErrorContext(ctx, "Scheduled digest failed", logger.ErrorField(err))
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("Scheduler started",
		logger.StringField("scan_cron", s.cfg.Scanner.Cron),
		logger.StringField("digest_cron", s.cfg.Digest.Cron),
	)
	return nil
}

// Stop halts the cron loop and returns a context that is done once running
// jobs finish.
func (s *schedulerService) Stop() context.Context {
	return s.cron.Stop()
}
