package clips

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
)

// Store is the record-store contract shared by both persistence backends.
// Callers never special-case behavior per backend; bulk updates commit per
// item on both so partial-failure semantics are identical.
type Store interface {
	GetAll(ctx context.Context, owner string) ([]models.Clip, error)
	GetByStatus(ctx context.Context, status enums.ClipStatus) ([]models.Clip, error)
	GetOne(ctx context.Context, clipID string) (*models.Clip, error)
	Add(ctx context.Context, clip *models.Clip) (*models.Clip, error)
	Update(ctx context.Context, clipID string, patch ClipPatch) (*models.Clip, error)
	BulkUpdate(ctx context.Context, clipIDs []string, patch ClipPatch) []BulkItemResult
	Remove(ctx context.Context, clipID string) error
	Stats(ctx context.Context, owner string) (*StatsDTO, error)
	Categories(ctx context.Context, owner string) ([]CategoryCount, error)
}

func notFoundErr(clipID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Clip %s not found", clipID))
}

// applyPatch mutates clip in place and refreshes updated_at.
func applyPatch(clip *models.Clip, patch ClipPatch, now time.Time) {
	if patch.Title != nil {
		clip.Title = *patch.Title
	}
	if patch.ClipURL != nil {
		clip.ClipURL = *patch.ClipURL
	}
	if patch.SourceVideo != nil {
		clip.SourceVideo = *patch.SourceVideo
	}
	if patch.Category != nil {
		clip.Category = *patch.Category
	}
	if patch.CategoryEmoji != nil {
		clip.CategoryEmoji = *patch.CategoryEmoji
	}
	if patch.SuggestedCaption != nil {
		clip.SuggestedCaption = *patch.SuggestedCaption
	}
	if patch.Transcript != nil {
		clip.Transcript = *patch.Transcript
	}
	if patch.Status != nil {
		clip.Status = *patch.Status
	}
	if patch.PostStatus != nil {
		clip.PostStatus = *patch.PostStatus
	}
	if patch.TargetAccounts != nil {
		clip.TargetAccounts = append(clip.TargetAccounts[:0:0], patch.TargetAccounts...)
	}
	if patch.SetScheduledAt {
		clip.ScheduledAt = cloneTimePtr(patch.ScheduledAt)
	}
	if patch.SetRejectionNote {
		clip.RejectionNote = cloneStringPtr(patch.RejectionNote)
	}
	clip.UpdatedAt = now
}

// computeStats derives the dashboard aggregates from a full collection. Both
// backends share the same semantics; the blob backend uses this directly and
// the SQL backend mirrors it with statements.
func computeStats(collection []models.Clip, now time.Time) StatsDTO {
	stats := StatsDTO{Total: len(collection)}
	for i := range collection {
		clip := &collection[i]
		switch {
		case clip.PostStatus == enums.PostStatusPublished:
			stats.Published++
		case clip.Status == enums.ClipStatusApproved:
			stats.Approved++
		}
		switch clip.Status {
		case enums.ClipStatusPendingReview:
			stats.Pending++
		case enums.ClipStatusRejected:
			stats.Rejected++
		}
		if clip.Status == enums.ClipStatusApproved &&
			clip.PostStatus == enums.PostStatusNotPosted &&
			clip.ScheduledAt != nil && clip.ScheduledAt.After(now) {
			if stats.NextScheduledAt == nil || clip.ScheduledAt.Before(*stats.NextScheduledAt) {
				stats.NextScheduledAt = cloneTimePtr(clip.ScheduledAt)
			}
		}
	}
	return stats
}

func computeCategories(collection []models.Clip) []CategoryCount {
	counts := map[string]*CategoryCount{}
	for i := range collection {
		clip := &collection[i]
		if clip.Category == "" {
			continue
		}
		entry, ok := counts[clip.Category]
		if !ok {
			entry = &CategoryCount{Category: clip.Category, Emoji: clip.CategoryEmoji}
			counts[clip.Category] = entry
		}
		entry.Count++
		if entry.Emoji == "" {
			entry.Emoji = clip.CategoryEmoji
		}
	}
	result := make([]CategoryCount, 0, len(counts))
	for _, entry := range counts {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result
}

func sortNewestFirst(collection []models.Clip) {
	sort.SliceStable(collection, func(i, j int) bool {
		return collection[i].CreatedAt.After(collection[j].CreatedAt)
	})
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
