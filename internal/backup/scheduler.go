package backup

import (
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"glucolog/internal/backup/interfaces"
	"glucolog/internal/providers"
	"glucolog/internal/store"
	"glucolog/internal/structures"
)

// DirtyTracker reports whether the store mutated since the last backup
// write. Implemented by the readings service.
type DirtyTracker interface {
	Dirty() bool
	MarkClean()
}

// Scheduler drives the periodic jobs: persisting the local store file and
// write-through backups after mutations. Both run on the cron goroutine,
// never on a request path, and are serialized by opsMu so a timed backup
// cannot interleave with the shutdown persist.
type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	fileManager *store.FileManager
	writer      *Writer
	tracker     DirtyTracker
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		start := time.Now()
		err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.metrics.ObservePersistenceDuration(time.Since(start))
		s.logger.Infof(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
	})

	s.cron.AddFunc(gron.Every(s.config.Backup.WriteInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		if !s.tracker.Dirty() {
			return
		}
		if _, err := s.writer.WriteBackup(); err != nil {
			s.logger.Errorf(providers.TypeBackup, "Write-through backup failed: %s", err)
			return
		}
		s.tracker.MarkClean()
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

// Persist flushes the store file and, when mutations are pending, a final
// backup. Called on shutdown.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting readings to file...")
	if err := s.fileManager.SaveToFile(s.config.Persistence.FilePath); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}

	if s.tracker.Dirty() {
		if _, err := s.writer.WriteBackup(); err != nil {
			s.logger.Errorf(providers.TypeBackup, "Final backup failed: %s", err)
		} else {
			s.tracker.MarkClean()
		}
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, fileManager *store.FileManager, writer *Writer, tracker DirtyTracker) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		metrics:     metrics,
		fileManager: fileManager,
		writer:      writer,
		tracker:     tracker,
	}
}
