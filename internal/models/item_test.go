package models

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestItem_MarkSyncedLinksOnce(t *testing.T) {
	item := &Item{Code: "TEST-001", SyncStatus: SyncStatusPending, SyncErrorMessage: "old"}
	now := time.Now()

	item.MarkSynced("abc-123", now)
	assert.True(t, item.IsLinked())
	assert.Equal(t, "abc-123", *item.ExternalProductID)
	assert.Equal(t, SyncStatusSynced, item.SyncStatus)
	assert.Empty(t, item.SyncErrorMessage)
	assert.Equal(t, now, *item.LastSyncAt)

	item.MarkSynced("", now.Add(time.Minute))
	assert.Equal(t, "abc-123", *item.ExternalProductID)
}

func TestItem_MarkErrorKeepsLink(t *testing.T) {
	id := "abc-123"
	item := &Item{Code: "TEST-001", ExternalProductID: &id}

	item.MarkError("", time.Now())
	assert.Equal(t, SyncStatusError, item.SyncStatus)
	assert.NotEmpty(t, item.SyncErrorMessage)
	assert.Equal(t, "abc-123", *item.ExternalProductID)
}

func TestSyncStatus_Valid(t *testing.T) {
	assert.True(t, SyncStatusPending.Valid())
	assert.False(t, SyncStatus("READY").Valid())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet("short"))
	assert.Len(t, Snippet(strings.Repeat("x", MaxSnippetBytes+10)), MaxSnippetBytes)
}

func TestSnippet_KeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", MaxSnippetBytes-1) + "é tail"

	got := Snippet(s)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, MaxSnippetBytes-1)

	assert.Equal(t, "日本", TruncateUTF8("日本語", 8))
	assert.Equal(t, "", TruncateUTF8("日本語", 2))
}
