package testutil

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"glucolog/internal/backup"
	"glucolog/internal/models"
	"glucolog/internal/providers"
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

// MockMetrics implements providers.MetricsProviderInterface and counts what
// it was told.
type MockMetrics struct {
	mu          sync.Mutex
	Backups     map[string]int
	Failures    int
	Restored    int
	Candidates  map[string]int
	ReadingsSet int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) ObserveDiscoveryDuration(_ time.Duration)         {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration)       {}

func (m *MockMetrics) IncBackupsTotal(location string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Backups == nil {
		m.Backups = make(map[string]int)
	}
	m.Backups[location]++
}

func (m *MockMetrics) IncBackupFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures++
}

func (m *MockMetrics) IncRestoredRecords(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Restored += count
}

func (m *MockMetrics) IncCandidatesDiscovered(origin string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Candidates == nil {
		m.Candidates = make(map[string]int)
	}
	m.Candidates[origin] += count
}

func (m *MockMetrics) SetReadingsTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadingsSet = count
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// MockManagedIndex is an in-memory backup.ManagedIndex with injectable
// failures per ref and per query.
type MockManagedIndex struct {
	mu       sync.Mutex
	entries  map[string]*mockEntry
	QueryErr error
	OpenErrs map[string]error
	nextID   int
}

type mockEntry struct {
	name     string
	data     []byte
	modified time.Time
}

func NewMockManagedIndex() *MockManagedIndex {
	return &MockManagedIndex{entries: make(map[string]*mockEntry)}
}

// Put seeds an entry and returns its ref.
func (m *MockManagedIndex) Put(name string, data []byte, modified time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ref := fmt.Sprintf("mock-ref-%03d", m.nextID)
	m.entries[ref] = &mockEntry{name: name, data: data, modified: modified}
	return ref
}

func (m *MockManagedIndex) QueryByName(name string) ([]backup.IndexEntry, error) {
	return m.query(func(e *mockEntry) bool { return e.name == name })
}

func (m *MockManagedIndex) QueryByToken(token string) ([]backup.IndexEntry, error) {
	needle := strings.ToLower(token)
	return m.query(func(e *mockEntry) bool {
		return strings.Contains(strings.ToLower(e.name), needle)
	})
}

func (m *MockManagedIndex) query(match func(*mockEntry) bool) ([]backup.IndexEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	var out []backup.IndexEntry
	for ref, e := range m.entries {
		if match(e) {
			out = append(out, backup.IndexEntry{
				Ref:        ref,
				Name:       e.name,
				RelPath:    e.name,
				ModifiedAt: e.modified,
			})
		}
	}
	return out, nil
}

func (m *MockManagedIndex) Open(ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.OpenErrs[ref]; ok {
		return nil, err
	}
	e, ok := m.entries[ref]
	if !ok {
		return nil, models.ErrNotFound
	}
	return e.data, nil
}

func (m *MockManagedIndex) Stat(ref string) (backup.IndexEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ref]
	if !ok {
		return backup.IndexEntry{}, models.ErrNotFound
	}
	return backup.IndexEntry{Ref: ref, Name: e.name, RelPath: e.name, ModifiedAt: e.modified}, nil
}

func (m *MockManagedIndex) Create(name string, data []byte) (backup.IndexEntry, error) {
	m.mu.Lock()
	if m.QueryErr != nil {
		m.mu.Unlock()
		return backup.IndexEntry{}, m.QueryErr
	}
	m.mu.Unlock()

	ref := m.Put(name, data, time.Now())
	return backup.IndexEntry{Ref: ref, Name: name, RelPath: name, ModifiedAt: time.Now()}, nil
}

func (m *MockManagedIndex) Delete(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[ref]; !ok {
		return models.ErrNotFound
	}
	delete(m.entries, ref)
	return nil
}

func (m *MockManagedIndex) Refs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for ref := range m.entries {
		out = append(out, ref)
	}
	return out
}
