package clips

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

// SQLStore persists clips as rows through GORM.
type SQLStore struct {
	conn *gorm.DB
	logg *logger.Logger
}

// NewSQLStore wires the relational clip store.
func NewSQLStore(conn *gorm.DB, logg *logger.Logger) *SQLStore {
	return &SQLStore{conn: conn, logg: logg}
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) scoped(ctx context.Context, owner string) *gorm.DB {
	query := s.conn.WithContext(ctx).Model(&models.Clip{})
	if owner != "" {
		query = query.Where("owner = ?", owner)
	}
	return query
}

// GetAll returns every clip, newest first, optionally scoped to an owner.
func (s *SQLStore) GetAll(ctx context.Context, owner string) ([]models.Clip, error) {
	var collection []models.Clip
	if err := s.scoped(ctx, owner).Order("created_at DESC").Find(&collection).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing clips")
	}
	return collection, nil
}

// GetByStatus returns every clip in the given review status.
func (s *SQLStore) GetByStatus(ctx context.Context, status enums.ClipStatus) ([]models.Clip, error) {
	var collection []models.Clip
	err := s.conn.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&collection).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing clips by status")
	}
	return collection, nil
}

// GetOne fetches a single clip by id.
func (s *SQLStore) GetOne(ctx context.Context, clipID string) (*models.Clip, error) {
	var clip models.Clip
	err := s.conn.WithContext(ctx).Where("clip_id = ?", clipID).First(&clip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundErr(clipID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching clip")
	}
	return &clip, nil
}

// Add inserts a new clip record.
func (s *SQLStore) Add(ctx context.Context, clip *models.Clip) (*models.Clip, error) {
	if err := s.conn.WithContext(ctx).Create(clip).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting clip")
	}
	return clip, nil
}

// Update loads the clip, applies the patch and saves the full row.
func (s *SQLStore) Update(ctx context.Context, clipID string, patch ClipPatch) (*models.Clip, error) {
	clip, err := s.GetOne(ctx, clipID)
	if err != nil {
		return nil, err
	}

	applyPatch(clip, patch, time.Now().UTC())
	if err := s.conn.WithContext(ctx).Save(clip).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving clip")
	}
	return clip, nil
}

// BulkUpdate applies the patch to each id independently. One bad id never
// blocks the rest.
func (s *SQLStore) BulkUpdate(ctx context.Context, clipIDs []string, patch ClipPatch) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(clipIDs))
	for _, clipID := range clipIDs {
		item := BulkItemResult{ClipID: clipID, Success: true}
		if _, err := s.Update(ctx, clipID, patch); err != nil {
			item.Success = false
			item.Error = pkgerrors.Message(err)
		}
		results = append(results, item)
	}
	return results
}

// Remove hard-deletes the clip row.
func (s *SQLStore) Remove(ctx context.Context, clipID string) error {
	result := s.conn.WithContext(ctx).Where("clip_id = ?", clipID).Delete(&models.Clip{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "deleting clip")
	}
	if result.RowsAffected == 0 {
		return notFoundErr(clipID)
	}
	return nil
}

type statusCountRow struct {
	Status string
	Count  int
}

// Stats derives the dashboard aggregates with statements so large collections
// never get pulled into memory.
func (s *SQLStore) Stats(ctx context.Context, owner string) (*StatsDTO, error) {
	stats := &StatsDTO{}

	var total int64
	if err := s.scoped(ctx, owner).Count(&total).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting clips")
	}
	stats.Total = int(total)

	var rows []statusCountRow
	err := s.scoped(ctx, owner).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting clips by status")
	}
	for _, row := range rows {
		switch enums.ClipStatus(row.Status) {
		case enums.ClipStatusPendingReview:
			stats.Pending = row.Count
		case enums.ClipStatusRejected:
			stats.Rejected = row.Count
		}
	}

	var published int64
	err = s.scoped(ctx, owner).
		Where("post_status = ?", enums.PostStatusPublished).
		Count(&published).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting published clips")
	}
	stats.Published = int(published)

	var approved int64
	err = s.scoped(ctx, owner).
		Where("status = ? AND post_status = ?", enums.ClipStatusApproved, enums.PostStatusNotPosted).
		Count(&approved).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting approved clips")
	}
	stats.Approved = int(approved)

	var next models.Clip
	err = s.scoped(ctx, owner).
		Where("status = ? AND post_status = ? AND scheduled_at > ?",
			enums.ClipStatusApproved, enums.PostStatusNotPosted, time.Now().UTC()).
		Order("scheduled_at ASC").
		Take(&next).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finding next scheduled clip")
	}
	if err == nil {
		stats.NextScheduledAt = cloneTimePtr(next.ScheduledAt)
	}

	return stats, nil
}

// Categories returns the category breakdown, alphabetically.
func (s *SQLStore) Categories(ctx context.Context, owner string) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := s.scoped(ctx, owner).
		Select("category, MAX(category_emoji) AS emoji, COUNT(*) AS count").
		Where("category <> ''").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting clip categories")
	}
	if rows == nil {
		rows = []CategoryCount{}
	}
	return rows, nil
}
