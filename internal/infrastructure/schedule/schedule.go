// Package schedule runs periodic result exports.
package schedule

import (
	"context"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Exporter queues an export behind outstanding work.
type Exporter interface {
	QueueExport(ctx context.Context) <-chan error
}

// ExportScheduler exports results on a cron schedule.
type ExportScheduler struct {
	cron     *cron.Cron
	exporter Exporter
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExportScheduler creates a scheduler for exporter.
func NewExportScheduler(exporter Exporter, logger *log.Logger) *ExportScheduler {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ExportScheduler{
		cron:     cron.New(),
		exporter: exporter,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers expr (five-field cron or a descriptor such as
// "@every 10m") and starts the scheduler.
func (s *ExportScheduler) Start(expr string) error {
	if _, err := s.cron.AddFunc(expr, s.RunNow); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", expr).Msg("export scheduler started")
	return nil
}

// RunNow queues one export and logs its result.
func (s *ExportScheduler) RunNow() {
	s.wg.Add(1)
	defer s.wg.Done()

	if err := <-s.exporter.QueueExport(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled export failed")
	}
}

// Stop stops the schedule and abandons exports still waiting their turn.
// The context is cancelled first so a job blocked behind queued analyses
// returns instead of holding up the cron shutdown.
func (s *ExportScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info().Msg("export scheduler stopped")
}
