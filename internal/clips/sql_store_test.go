package clips

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Clip{}))
	return NewSQLStore(conn, testLogger())
}

func mustAdd(t *testing.T, store *SQLStore, clip models.Clip) {
	t.Helper()
	_, err := store.Add(context.Background(), &clip)
	require.NoError(t, err)
}

func TestSQLStoreAddAndGetOne(t *testing.T) {
	store := newTestSQLStore(t)
	mustAdd(t, store, unboundClip("clip-1"))

	clip, err := store.GetOne(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Equal(t, "Clip clip-1", clip.Title)
	assert.Equal(t, enums.ClipStatusPendingReview, clip.Status)
}

func TestSQLStoreGetOneNotFound(t *testing.T) {
	store := newTestSQLStore(t)

	_, err := store.GetOne(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, "Clip ghost not found", pkgerrors.As(err).Message())
}

func TestSQLStoreGetAllScopedToOwner(t *testing.T) {
	store := newTestSQLStore(t)

	mine := unboundClip("clip-mine")
	mine.Owner = "op-1"
	theirs := unboundClip("clip-theirs")
	theirs.Owner = "op-2"
	mustAdd(t, store, mine)
	mustAdd(t, store, theirs)

	all, err := store.GetAll(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := store.GetAll(context.Background(), "op-1")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "clip-mine", scoped[0].ClipID)
}

func TestSQLStoreGetByStatus(t *testing.T) {
	store := newTestSQLStore(t)

	approved := unboundClip("clip-approved")
	approved.Status = enums.ClipStatusApproved
	mustAdd(t, store, approved)
	mustAdd(t, store, unboundClip("clip-pending"))

	collection, err := store.GetByStatus(context.Background(), enums.ClipStatusApproved)
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Equal(t, "clip-approved", collection[0].ClipID)
}

func TestSQLStoreUpdateAppliesPatch(t *testing.T) {
	store := newTestSQLStore(t)
	mustAdd(t, store, unboundClip("clip-1"))

	approved := enums.ClipStatusApproved
	scheduledAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	clip, err := store.Update(context.Background(), "clip-1", ClipPatch{
		Status:         &approved,
		Title:          strPtr("retitled"),
		ScheduledAt:    &scheduledAt,
		SetScheduledAt: true,
		TargetAccounts: []string{"acc-1", "acc-2"},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ClipStatusApproved, clip.Status)
	assert.Equal(t, "retitled", clip.Title)
	require.NotNil(t, clip.ScheduledAt)

	reloaded, err := store.GetOne(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Equal(t, "retitled", reloaded.Title)
	require.NotNil(t, reloaded.ScheduledAt)
	assert.True(t, reloaded.ScheduledAt.UTC().Equal(scheduledAt))
	assert.Equal(t, []string{"acc-1", "acc-2"}, []string(reloaded.TargetAccounts))
}

func TestSQLStoreUpdateClearsNullableFields(t *testing.T) {
	store := newTestSQLStore(t)

	clip := unboundClip("clip-1")
	scheduledAt := time.Now().UTC().Add(time.Hour)
	clip.ScheduledAt = &scheduledAt
	clip.RejectionNote = strPtr("old note")
	mustAdd(t, store, clip)

	_, err := store.Update(context.Background(), "clip-1", ClipPatch{
		SetScheduledAt:   true,
		SetRejectionNote: true,
	})
	require.NoError(t, err)

	reloaded, err := store.GetOne(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Nil(t, reloaded.ScheduledAt)
	assert.Nil(t, reloaded.RejectionNote)
}

func TestSQLStoreBulkUpdatePerItem(t *testing.T) {
	store := newTestSQLStore(t)
	mustAdd(t, store, unboundClip("clip-1"))
	mustAdd(t, store, unboundClip("clip-2"))

	rejected := enums.ClipStatusRejected
	results := store.BulkUpdate(context.Background(),
		[]string{"clip-1", "ghost", "clip-2"}, ClipPatch{Status: &rejected})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Clip ghost not found", results[1].Error)
	assert.True(t, results[2].Success)
}

func TestSQLStoreRemove(t *testing.T) {
	store := newTestSQLStore(t)
	mustAdd(t, store, unboundClip("clip-1"))

	require.NoError(t, store.Remove(context.Background(), "clip-1"))

	err := store.Remove(context.Background(), "clip-1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSQLStoreStats(t *testing.T) {
	store := newTestSQLStore(t)

	pending := unboundClip("clip-pending")

	near := unboundClip("clip-near")
	near.Status = enums.ClipStatusApproved
	nearAt := time.Now().UTC().Add(time.Hour)
	near.ScheduledAt = &nearAt

	far := unboundClip("clip-far")
	far.Status = enums.ClipStatusApproved
	farAt := time.Now().UTC().Add(48 * time.Hour)
	far.ScheduledAt = &farAt

	live := unboundClip("clip-live")
	live.Status = enums.ClipStatusApproved
	live.PostStatus = enums.PostStatusPublished

	rejected := unboundClip("clip-rejected")
	rejected.Status = enums.ClipStatusRejected

	for _, clip := range []models.Clip{pending, near, far, live, rejected} {
		mustAdd(t, store, clip)
	}

	stats, err := store.Stats(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 1, stats.Rejected)
	require.NotNil(t, stats.NextScheduledAt)
	assert.WithinDuration(t, nearAt, *stats.NextScheduledAt, time.Second)
}

func TestSQLStoreCategories(t *testing.T) {
	store := newTestSQLStore(t)

	first := unboundClip("clip-1")
	first.Category = "gaming"
	first.CategoryEmoji = "🎮"
	second := unboundClip("clip-2")
	second.Category = "gaming"
	second.CategoryEmoji = "🎮"
	third := unboundClip("clip-3")
	third.Category = "music"
	third.CategoryEmoji = "🎵"
	uncategorized := unboundClip("clip-4")

	for _, clip := range []models.Clip{first, second, third, uncategorized} {
		mustAdd(t, store, clip)
	}

	categories, err := store.Categories(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "gaming", categories[0].Category)
	assert.Equal(t, 2, categories[0].Count)
	assert.Equal(t, "music", categories[1].Category)
	assert.Equal(t, 1, categories[1].Count)
}
