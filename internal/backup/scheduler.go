package backup

import (
	"context"
	"github.com/roylee0704/gron"
	"sync"
	"time"
	"timekeeper/internal/backup/interfaces"
	"timekeeper/internal/providers"
	"timekeeper/internal/structures"
)

const persistTimeout = time.Minute

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	if !s.config.Backup.Enabled {
		return
	}
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Backup.Interval), func() {
		if err := s.Persist(); err != nil {
			return
		}
		s.logger.Infof(providers.TypeApp, "Backup written to %s", s.config.Backup.FilePath)
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	stats, err := s.fileManager.LoadFromFile(ctx, s.config.Backup.FilePath)
	if err != nil {
		return err
	}
	s.logger.Infof(providers.TypeApp, "Restored %d users and %d events from %s", stats.Users, stats.Events, s.config.Backup.FilePath)
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	start := time.Now()
	err := s.fileManager.SaveToFile(ctx, s.config.Backup.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while writing backup: %s", err)
		return err
	}
	s.metrics.ObserveBackupDuration(time.Since(start))
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
