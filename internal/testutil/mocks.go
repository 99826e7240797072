package testutil

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"enduro/internal/models"
	"enduro/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLevel reports whether any recorded entry has the given level.
func (m *MockLogger) HasLevel(level string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level {
			return true
		}
	}
	return false
}

// MockRemote implements strava.SourceInterface with injectable behavior.
type MockRemote struct {
	mu         sync.Mutex
	FetchAllFn func() (*models.Dataset, error)
	AthleteFn  func() (json.RawMessage, error)
	FetchCalls int
}

func (m *MockRemote) FetchAll(_ context.Context) (*models.Dataset, error) {
	m.mu.Lock()
	m.FetchCalls++
	m.mu.Unlock()
	if m.FetchAllFn != nil {
		return m.FetchAllFn()
	}
	return models.EmptyDataset(), nil
}

func (m *MockRemote) Athlete(_ context.Context) (json.RawMessage, error) {
	if m.AthleteFn != nil {
		return m.AthleteFn()
	}
	return json.RawMessage(`{}`), nil
}

func (m *MockRemote) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCalls
}

// MockSnapshotStore implements store.SnapshotStoreInterface in memory.
type MockSnapshotStore struct {
	mu         sync.Mutex
	Dataset    *models.Dataset
	LoadErr    error
	SaveErr    error
	ClearErr   error
	LoadCalls  int
	SaveCalls  int
	ClearCalls int
	Mod        time.Time
}

func (m *MockSnapshotStore) Load() (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Dataset == nil {
		return nil, models.ErrNotFound
	}
	return m.Dataset, nil
}

func (m *MockSnapshotStore) Save(dataset *models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Dataset = dataset
	m.Mod = time.Now()
	return nil
}

func (m *MockSnapshotStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Dataset = nil
	return nil
}

func (m *MockSnapshotStore) Path() string {
	return "/tmp/enduro-test.snap"
}

func (m *MockSnapshotStore) ModTime() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Dataset == nil {
		return time.Time{}, false
	}
	return m.Mod, true
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements store.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// NoopMetrics implements providers.MetricsProviderInterface.
type NoopMetrics struct{}

func (n *NoopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *NoopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *NoopMetrics) IncCacheHits()                                    {}
func (n *NoopMetrics) IncCacheMisses()                                  {}
func (n *NoopMetrics) IncPagesFetched()                                 {}
func (n *NoopMetrics) IncRateLimitHits()                                {}
func (n *NoopMetrics) ObserveSnapshotLoad(_ time.Duration)              {}
func (n *NoopMetrics) ObserveSnapshotSave(_ time.Duration)              {}
func (n *NoopMetrics) SetActivitiesTotal(_ int)                         {}

// MakeDataset builds a dataset from (id, sport, start) triples with fixed
// distance/elevation/duration derived from the id, for table tests.
func MakeDataset(ids []int64, sport string, start time.Time) *models.Dataset {
	acts := make([]models.Activity, len(ids))
	for i, id := range ids {
		acts[i] = models.Activity{
			Id:         id,
			Name:       "Workout",
			Sport:      sport,
			StartDate:  start.Add(time.Duration(i) * 24 * time.Hour).UTC(),
			DistanceM:  float64(id) * 100,
			ElevationM: float64(id) * 10,
			MovingSec:  id * 60,
		}
	}
	ds, err := models.NewDataset(acts)
	if err != nil {
		panic(err)
	}
	return ds
}
