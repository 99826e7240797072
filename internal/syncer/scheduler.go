package syncer

import (
	"context"
	"sync"

	"github.com/roylee0704/gron"

	"enduro/internal/providers"
	"enduro/internal/services"
	"enduro/internal/structures"
	"enduro/internal/syncer/interfaces"
)

// Scheduler optionally re-syncs the session on a fixed interval. It is off
// by default: the normal flow is strictly request-driven, and every refresh
// here goes through the same serialized session entry point.
type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	session services.SessionServiceInterface
	cron    *gron.Cron
	opsMu   sync.Mutex
}

func (s *Scheduler) Init() {
	if !s.config.Refresh.Enabled || s.config.Refresh.Interval <= 0 {
		s.logger.Infof(providers.TypeApp, "Scheduled refresh disabled")
		return
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(s.config.Refresh.Interval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		s.logger.Infof(providers.TypeSync, "Scheduled refresh starting")
		dataset, err := s.session.InvalidateAndReload(context.Background())
		if err != nil {
			s.logger.Errorf(providers.TypeSync, "Scheduled refresh failed: %s", err)
			return
		}
		s.logger.Infof(providers.TypeSync, "Scheduled refresh done, %d activities (%s)", dataset.Len(), s.session.Status())
	})
	s.cron.Start()

	s.logger.Infof(providers.TypeApp, "Scheduled refresh every %s", s.config.Refresh.Interval)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Warm primes the session from the on-disk snapshot at boot. It never
// fetches: when no snapshot exists the session stays cold until the first
// request asks for data.
func (s *Scheduler) Warm() error {
	if _, _, exists := s.session.SnapshotInfo(); !exists {
		return nil
	}
	_, err := s.session.GetOrLoad(context.Background())
	return err
}

func NewScheduler(config *structures.Config, logger providers.Logger, session services.SessionServiceInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		session: session,
	}
}
