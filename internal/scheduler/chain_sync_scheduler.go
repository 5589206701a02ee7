package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/metrics"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ChainSyncScheduler refreshes on-chain business data and re-checks stale
// pending payments on a cron schedule. Runs never overlap.
type ChainSyncScheduler struct {
	cron        *cron.Cron
	syncService service.ChainSyncService
	schedule    string
	timeout     time.Duration

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChainSyncScheduler builds a scheduler. timeout bounds a single run.
func NewChainSyncScheduler(syncService service.ChainSyncService, schedule string, timeout time.Duration) *ChainSyncScheduler {
	return &ChainSyncScheduler{
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		syncService: syncService,
		schedule:    schedule,
		timeout:     timeout,
	}
}

// Start registers the sync job and starts the cron loop. Runs are cancelled
// when ctx is done or Stop is called.
func (s *ChainSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(s.ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for chain sync", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Chain sync scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce performs a single sync and records its outcome.
func (s *ChainSyncScheduler) RunOnce(ctx context.Context) *service.SyncReport {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	report, err := s.syncService.Sync(ctx)
	failed := 0
	if report != nil {
		failed = report.Failed
	}
	metrics.RecordSync(time.Since(start), failed, err)

	if err != nil {
		logger.Error("Scheduled chain sync failed", err)
		return nil
	}
	logger.Debug("Scheduled chain sync completed", map[string]interface{}{
		"businesses":      report.Businesses,
		"refreshed":       report.Refreshed,
		"reconciled":      report.Reconciled,
		"failed":          report.Failed,
		"pending_settled": report.PendingSettled,
	})
	return report
}

// Stop cancels any in-flight run and waits for it to return.
func (s *ChainSyncScheduler) Stop() {
	logger.Info("Stopping chain sync scheduler...")
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	logger.Info("Chain sync scheduler stopped")
}
