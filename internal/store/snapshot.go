package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"enduro/internal/models"
	"enduro/internal/providers"
	"enduro/internal/structures"
)

// SnapshotStoreInterface is a dumb, reliable blob store for exactly one
// dataset snapshot. Freshness policy lives in the sync service, not here.
type SnapshotStoreInterface interface {
	Load() (*models.Dataset, error)
	Save(dataset *models.Dataset) error
	Clear() error
	Path() string
	ModTime() (time.Time, bool)
}

type FileSnapshotStore struct {
	path       string
	compressor CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewFileSnapshotStore(conf *structures.Config, compressor CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) SnapshotStoreInterface {
	return &FileSnapshotStore{
		path:       conf.Snapshot.FilePath,
		compressor: compressor,
		logger:     logger,
		metrics:    metrics,
	}
}

// Load reads the snapshot. Missing file is models.ErrNotFound; a file that
// cannot be decompressed or decoded into the expected schema is
// models.ErrCorruptSnapshot, never a partial dataset.
func (s *FileSnapshotStore) Load() (*models.Dataset, error) {
	start := time.Now()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	decompressed, err := s.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %s: %v", models.ErrCorruptSnapshot, s.path, err)
	}

	dataset, err := models.DecodeDataset(decompressed)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", models.ErrCorruptSnapshot, s.path, err)
	}

	s.metrics.ObserveSnapshotLoad(time.Since(start))
	s.logger.Infof(providers.TypeApp, "Loaded %d activities from snapshot %s", dataset.Len(), s.path)
	return dataset, nil
}

// Save atomically replaces the snapshot: encode, compress, write to a temp
// file, fsync, rename. A crash mid-write leaves the previous snapshot (or
// none) intact.
func (s *FileSnapshotStore) Save(dataset *models.Dataset) error {
	start := time.Now()

	encoded, err := models.EncodeDataset(dataset)
	if err != nil {
		return err
	}
	data, err := s.compressor.Compress(encoded)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	tmpFile := s.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	if err = os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return err
	}

	s.metrics.ObserveSnapshotSave(time.Since(start))
	s.logger.Infof(providers.TypeApp, "Persisted %d activities to snapshot %s", dataset.Len(), s.path)
	return nil
}

// Clear removes the snapshot. Idempotent if already absent.
func (s *FileSnapshotStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileSnapshotStore) Path() string {
	return s.path
}

func (s *FileSnapshotStore) ModTime() (time.Time, bool) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
