package service

import (
	"context"
	"time"

	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/redis"
)

// SyncReport summarizes one chain sync pass.
type SyncReport struct {
	Businesses     int           `json:"businesses"`
	Refreshed      int           `json:"refreshed"`
	Reconciled     int           `json:"reconciled"`
	Failed         int           `json:"failed"`
	PendingSettled int           `json:"pending_settled"`
	Duration       time.Duration `json:"duration"`
}

type ChainSyncService interface {
	Sync(ctx context.Context) (*SyncReport, error)
}

type chainSyncService struct {
	businessRepo  repository.BusinessRepository
	payments      PaymentService
	chain         chain.Client
	cache         redis.Store
	cacheTTL      time.Duration
	pendingMaxAge time.Duration
}

func NewChainSyncService(
	businessRepo repository.BusinessRepository,
	payments PaymentService,
	chainClient chain.Client,
	cache redis.Store,
	cacheTTL, pendingMaxAge time.Duration,
) ChainSyncService {
	return &chainSyncService{
		businessRepo:  businessRepo,
		payments:      payments,
		chain:         chainClient,
		cache:         cache,
		cacheTTL:      cacheTTL,
		pendingMaxAge: pendingMaxAge,
	}
}

// Sync refreshes the cached contract view of every business and re-checks
// stale pending transactions. Against the real contract it also copies the
// on-chain counters into the directory; the mock's in-memory state does not
// survive restarts, so it never overwrites stored counters.
func (s *chainSyncService) Sync(ctx context.Context) (*SyncReport, error) {
	start := time.Now()
	report := &SyncReport{}

	businesses, _, err := s.businessRepo.FindAll(repository.BusinessFilter{})
	if err != nil {
		return nil, err
	}
	report.Businesses = len(businesses)
	reconcile := s.chain.Mode() != "mock"

	for _, b := range businesses {
		if ctx.Err() != nil {
			break
		}

		view, err := fetchOnChainBusiness(ctx, s.chain, b.ID)
		if err != nil {
			report.Failed++
			logger.Warn("Chain sync failed for business", map[string]interface{}{
				"business_id": b.ID,
				"error":       err.Error(),
			})
			continue
		}
		if err := s.cache.SetJSON(ctx, onChainCacheKey(b.ID), view, s.cacheTTL); err == nil {
			report.Refreshed++
		}

		if !reconcile {
			continue
		}
		active := view.IsActive
		snap := repository.ChainSnapshot{
			Registered:       view.Registered,
			TotalReceivedWei: view.TotalReceivedWei,
			TransactionCount: int64(view.TransactionCount),
			SyncedAt:         view.FetchedAt,
		}
		if view.Registered {
			snap.IsActive = &active
		}
		if err := s.businessRepo.ApplyChainSnapshot(b.ID, snap); err != nil {
			report.Failed++
			continue
		}
		report.Reconciled++
	}

	if s.payments != nil && ctx.Err() == nil {
		settled, err := s.payments.RecheckPending(ctx, time.Now().Add(-s.pendingMaxAge))
		if err != nil {
			logger.Error("Failed to re-check pending transactions", err)
		}
		report.PendingSettled = settled
	}

	report.Duration = time.Since(start)
	logger.Info("Chain sync finished", map[string]interface{}{
		"mode":            s.chain.Mode(),
		"businesses":      report.Businesses,
		"refreshed":       report.Refreshed,
		"reconciled":      report.Reconciled,
		"failed":          report.Failed,
		"pending_settled": report.PendingSettled,
		"duration_ms":     report.Duration.Milliseconds(),
	})
	return report, nil
}
