package productsync

import (
	"context"
	"fmt"

	"catalogsync/internal/database"
	"catalogsync/internal/models"
)

const (
	DefaultBatchLimit = 50
	MaxBatchLimit     = 500
)

// BatchFilter selects the items of a batch run. With no codes and no
// statuses every sync-enabled item is a candidate. ModifiedOnly narrows the
// run to items saved since their last sync attempt.
type BatchFilter struct {
	Codes        []string            `json:"codes"`
	Statuses     []models.SyncStatus `json:"statuses"`
	ModifiedOnly bool                `json:"modified_only"`
	Limit        int                 `json:"limit"`
}

type BatchSummary struct {
	Total   int       `json:"total"`
	Synced  int       `json:"synced"`
	Failed  int       `json:"failed"`
	Skipped int       `json:"skipped"`
	Results []*Result `json:"results"`
}

// SyncBatch syncs the selected items one after another. It stops early when
// ctx is cancelled and reports what was done so far.
func (s *Service) SyncBatch(ctx context.Context, filter BatchFilter) (*BatchSummary, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, fmt.Errorf("unknown sync status %q", status)
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	if limit > MaxBatchLimit {
		limit = MaxBatchLimit
	}

	items, err := s.items.Find(ctx, database.ItemFilter{
		Codes:    filter.Codes,
		Statuses: filter.Statuses,
		// Explicit codes are passed through so ineligible ones show up as skipped.
		SyncEnabledOnly:  len(filter.Codes) == 0,
		ChangedSinceSync: filter.ModifiedOnly,
		Limit:            limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}

	summary := &BatchSummary{Results: make([]*Result, 0, len(items))}
	for i := range items {
		if ctx.Err() != nil {
			s.logger.Warn("Batch sync cancelled after %d of %d items", i, len(items))
			break
		}

		result := s.Sync(ctx, &items[i], TriggerBatch)
		summary.Results = append(summary.Results, result)
		summary.Total++
		switch result.Outcome {
		case OutcomeSynced:
			summary.Synced++
		case OutcomeFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}

	s.logger.Info("Batch sync finished: %d total, %d synced, %d failed, %d skipped",
		summary.Total, summary.Synced, summary.Failed, summary.Skipped)
	return summary, nil
}
