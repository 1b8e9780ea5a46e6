package service

import (
	"context"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/cache"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/rs/zerolog/log"
)

// Inventory serves read-side stock views. The summary aggregate goes
// through the cache; mutating services invalidate it after stock moves.
type Inventory struct {
	store repository.Store
	cache cache.InventorySummaryCache
}

func NewInventory(store repository.Store, summaryCache cache.InventorySummaryCache) *Inventory {
	if summaryCache == nil {
		summaryCache = cache.NewNoopInventorySummaryCache()
	}
	return &Inventory{store: store, cache: summaryCache}
}

func (s *Inventory) Summary(ctx context.Context, branchID int64) (*domain.InventorySummary, error) {
	if cached, ok, err := s.cache.GetSummary(ctx, branchID); err != nil {
		log.Warn().Err(err).Int64("branch_id", branchID).Msg("summary cache read failed")
	} else if ok {
		return cached, nil
	}

	summary, err := s.store.InventorySummary(ctx, branchID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSummary(ctx, branchID, summary); err != nil {
		log.Warn().Err(err).Int64("branch_id", branchID).Msg("summary cache write failed")
	}
	return summary, nil
}

func (s *Inventory) LowStock(ctx context.Context, branchID int64) ([]domain.Medicine, error) {
	return s.store.ListLowStock(ctx, branchID)
}

func (s *Inventory) GetMedicine(ctx context.Context, id int64) (*domain.Medicine, error) {
	return s.store.GetMedicine(ctx, id)
}

// DeactivateMedicine withdraws a medicine from sale and from sync feeds.
// The row and its history stay; only is_active flips.
func (s *Inventory) DeactivateMedicine(ctx context.Context, actor domain.Actor, id int64) error {
	med, err := s.store.GetMedicine(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateMedicine(ctx, id); err != nil {
		return err
	}

	log.Info().
		Int64("medicine_id", id).
		Str("name", med.Name).
		Int64("actor_id", actor.ID).
		Msg("medicine deactivated")

	s.InvalidateSummary(ctx, med.BranchID)
	return nil
}

// InvalidateSummary drops the cached aggregate for a branch after a stock
// movement. Cache errors are logged, never surfaced: the TTL bounds
// staleness anyway.
func (s *Inventory) InvalidateSummary(ctx context.Context, branchID int64) {
	if err := s.cache.InvalidateBranch(ctx, branchID); err != nil {
		log.Warn().Err(err).Int64("branch_id", branchID).Msg("summary cache invalidation failed")
	}
}
