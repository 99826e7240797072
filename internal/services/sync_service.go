package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"enduro/internal/models"
	"enduro/internal/providers"
	"enduro/internal/store"
	"enduro/internal/strava"
)

// SyncServiceInterface is the single decision point for "what dataset do I
// hand the caller right now": snapshot, remote fetch, degraded fallback, or
// the terminal no-data condition.
type SyncServiceInterface interface {
	Load(ctx context.Context, forceRefresh bool) (*models.Dataset, Status, error)
	ClearSnapshot() error
	SnapshotInfo() (path string, modTime time.Time, exists bool)
}

type SyncService struct {
	remote strava.SourceInterface
	store  store.SnapshotStoreInterface
	logger providers.Logger
}

func NewSyncService(remote strava.SourceInterface, snapshots store.SnapshotStoreInterface, logger providers.Logger) SyncServiceInterface {
	return &SyncService{
		remote: remote,
		store:  snapshots,
		logger: logger,
	}
}

// Load runs one pass of the sync state machine. Without forceRefresh it is
// a cold start: snapshot first, remote only when nothing is cached. With
// forceRefresh it fetches first and replaces the snapshot only after the
// fetch succeeds, so a failed refresh never leaves the system worse off
// than before.
func (s *SyncService) Load(ctx context.Context, forceRefresh bool) (*models.Dataset, Status, error) {
	if !forceRefresh {
		dataset, err := s.store.Load()
		if err == nil {
			return dataset, StatusFromCache, nil
		}
		s.logLoadFailure(err)
	}

	return s.fetch(ctx)
}

func (s *SyncService) fetch(ctx context.Context) (*models.Dataset, Status, error) {
	dataset, err := s.remote.FetchAll(ctx)
	if err == nil {
		if saveErr := s.store.Save(dataset); saveErr != nil {
			// Data is already in hand; a persistence failure only costs
			// the next cold start a refetch.
			s.logger.Errorf(providers.TypeSync, "Failed to persist snapshot: %s", saveErr)
		}
		return dataset, StatusFresh, nil
	}

	var degraded Status
	switch {
	case errors.Is(err, models.ErrRateLimited):
		degraded = StatusDegradedRateLimit
		s.logger.Warnf(providers.TypeSync, "Remote rate limited, falling back to snapshot: %s", err)
	default:
		degraded = StatusDegradedTransport
		s.logger.Errorf(providers.TypeSync, "Remote fetch failed, falling back to snapshot: %s", err)
	}

	cached, loadErr := s.store.Load()
	if loadErr == nil {
		return cached, degraded, nil
	}
	s.logLoadFailure(loadErr)

	return nil, StatusNoData, fmt.Errorf("%w: remote fetch failed: %w", models.ErrNoData, err)
}

// logLoadFailure logs corrupt snapshots distinctly: unlike simple absence
// they indicate a local data integrity problem.
func (s *SyncService) logLoadFailure(err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		s.logger.Debugf(providers.TypeSync, "No snapshot on disk")
	case errors.Is(err, models.ErrCorruptSnapshot):
		s.logger.Warnf(providers.TypeSync, "Snapshot unreadable, will rebuild: %s", err)
	default:
		s.logger.Errorf(providers.TypeSync, "Snapshot load failed: %s", err)
	}
}

func (s *SyncService) ClearSnapshot() error {
	return s.store.Clear()
}

func (s *SyncService) SnapshotInfo() (string, time.Time, bool) {
	modTime, exists := s.store.ModTime()
	return s.store.Path(), modTime, exists
}
