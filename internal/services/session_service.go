package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"enduro/internal/models"
	"enduro/internal/providers"
)

// SessionServiceInterface owns the single in-process copy of the dataset.
// All readers share the same logical snapshot until a refresh replaces it.
type SessionServiceInterface interface {
	GetOrLoad(ctx context.Context) (*models.Dataset, error)
	InvalidateAndReload(ctx context.Context) (*models.Dataset, error)
	Purge() error
	Last() (*models.Dataset, bool)
	Status() Status
	SnapshotInfo() (path string, modTime time.Time, exists bool)
}

type SessionService struct {
	syncer  SyncServiceInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	mu      sync.Mutex
	dataset *models.Dataset
	status  atomic.Int32
}

func NewSessionService(syncer SyncServiceInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) SessionServiceInterface {
	return &SessionService{
		syncer:  syncer,
		logger:  logger,
		metrics: metrics,
	}
}

// GetOrLoad returns the memoized dataset, or runs a cold-start sync pass
// and memoizes the result. Errors are never memoized: a failed call is
// retried fresh on the next request. Concurrent callers are serialized
// here, which keeps the sync service single-threaded.
func (s *SessionService) GetOrLoad(ctx context.Context) (*models.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset != nil {
		return s.dataset, nil
	}
	return s.load(ctx, false)
}

// InvalidateAndReload drops the memoized dataset exactly once and runs a
// forced-refresh sync pass.
func (s *SessionService) InvalidateAndReload(ctx context.Context) (*models.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset = nil
	return s.load(ctx, true)
}

func (s *SessionService) load(ctx context.Context, forceRefresh bool) (*models.Dataset, error) {
	dataset, status, err := s.syncer.Load(ctx, forceRefresh)
	s.status.Store(int32(status))
	if err != nil {
		return nil, err
	}

	s.dataset = dataset
	s.metrics.SetActivitiesTotal(dataset.Len())
	s.logger.Infof(providers.TypeSync, "Session holds %d activities (%s)", dataset.Len(), status)
	return dataset, nil
}

// Purge drops both the memoized dataset and the on-disk snapshot without
// refetching. The next GetOrLoad starts cold.
func (s *SessionService) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset = nil
	s.status.Store(int32(StatusUnknown))
	return s.syncer.ClearSnapshot()
}

func (s *SessionService) Last() (*models.Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset == nil {
		return nil, false
	}
	return s.dataset, true
}

// Status is readable without blocking on an in-flight load.
func (s *SessionService) Status() Status {
	return Status(s.status.Load())
}

func (s *SessionService) SnapshotInfo() (string, time.Time, bool) {
	return s.syncer.SnapshotInfo()
}
