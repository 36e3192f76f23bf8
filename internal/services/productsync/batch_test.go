package productsync

import (
	"context"
	"testing"
	"time"

	"catalogsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncBatch(t *testing.T) {
	good := testItem("A")
	noPrice := testItem("B")
	noPrice.Price.Valid = false
	off := testItem("C")
	off.SyncEnabled = false

	h := newHarness(testSettings(), good, noPrice, off)

	summary, err := h.svc.SyncBatch(context.Background(), BatchFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, TriggerBatch, summary.Results[0].Trigger)
	assert.Equal(t, models.SyncStatusSynced, h.items.stored("A").SyncStatus)
	assert.Equal(t, models.SyncStatusError, h.items.stored("B").SyncStatus)
}

func TestSyncBatch_ExplicitCodesReportSkips(t *testing.T) {
	off := testItem("C")
	off.SyncEnabled = false
	h := newHarness(testSettings(), testItem("A"), off)

	summary, err := h.svc.SyncBatch(context.Background(), BatchFilter{Codes: []string{"A", "C"}})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 1, summary.Skipped)
}

func TestSyncBatch_StatusFilterAndLimit(t *testing.T) {
	failed := testItem("B")
	failed.SyncStatus = models.SyncStatusError
	failedToo := testItem("C")
	failedToo.SyncStatus = models.SyncStatusError
	h := newHarness(testSettings(), testItem("A"), failed, failedToo)

	summary, err := h.svc.SyncBatch(context.Background(), BatchFilter{
		Statuses: []models.SyncStatus{models.SyncStatusError},
		Limit:    1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total)
	assert.Equal(t, "B", summary.Results[0].ItemCode)
}

func TestSyncBatch_ModifiedOnly(t *testing.T) {
	now := time.Now().UTC()
	lastSync := now.Add(-2 * time.Hour)

	unchanged := testItem("B")
	unchanged.SyncStatus = models.SyncStatusSynced
	unchanged.LastSyncAt = &lastSync
	unchanged.ModifiedAt = lastSync.Add(-time.Hour)

	edited := testItem("C")
	edited.SyncStatus = models.SyncStatusSynced
	edited.LastSyncAt = &lastSync
	edited.ModifiedAt = now.Add(-time.Minute)

	pending := testItem("D")
	pending.SyncStatus = models.SyncStatusPending

	h := newHarness(testSettings(), testItem("A"), unchanged, edited, pending)

	summary, err := h.svc.SyncBatch(context.Background(), BatchFilter{ModifiedOnly: true})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Total)
	assert.Equal(t, "A", summary.Results[0].ItemCode)
	assert.Equal(t, "C", summary.Results[1].ItemCode)

	again, err := h.svc.SyncBatch(context.Background(), BatchFilter{ModifiedOnly: true})
	require.NoError(t, err)
	assert.Zero(t, again.Total)
}

func TestSyncBatch_RejectsUnknownStatus(t *testing.T) {
	h := newHarness(testSettings())
	_, err := h.svc.SyncBatch(context.Background(), BatchFilter{Statuses: []models.SyncStatus{"DONE"}})
	assert.Error(t, err)
}

func TestSyncBatch_StopsWhenCancelled(t *testing.T) {
	h := newHarness(testSettings(), testItem("A"), testItem("B"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.svc.SyncBatch(ctx, BatchFilter{})
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, h.connector.calls())
}
