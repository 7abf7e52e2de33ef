package clips

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
	"github.com/angelmondragon/clipdeck-backend/pkg/metrics"
	"github.com/angelmondragon/clipdeck-backend/pkg/postbridge"
)

// Publisher is the outbound publishing surface the lifecycle needs. The Post
// Bridge client satisfies it; tests swap in a stub.
type Publisher interface {
	Configured() bool
	CreateDraft(ctx context.Context, params postbridge.CreateDraftParams) (string, error)
	SetLive(ctx context.Context, postID string, scheduledAt *time.Time) error
	RevertToDraft(ctx context.Context, postID string) error
	PatchDraft(ctx context.Context, postID string, patch postbridge.DraftPatch) error
	CreateLivePost(ctx context.Context, mediaID, caption, accountID string) (string, error)
	ListAccounts(ctx context.Context) ([]postbridge.Account, error)
	UploadMedia(ctx context.Context, mediaURL, name string) (string, error)
}

// Service orchestrates the clip review lifecycle across the record store and
// the publishing service.
type Service struct {
	store     Store
	publisher Publisher
	metrics   *metrics.PublishMetrics
	logg      *logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires the clip lifecycle service.
func NewService(store Store, publisher Publisher, pm *metrics.PublishMetrics, logg *logger.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		metrics:   pm,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newClipID,
	}
}

// newClipID mints ids in the pb_<millis>_<suffix> shape so operator-created
// posts sort naturally next to imported clips.
func newClipID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("pb_%d_%s", time.Now().UnixMilli(), suffix)
}

// List returns the filtered, sorted collection plus the dashboard aggregates.
func (s *Service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	collection, err := s.store.GetAll(ctx, query.Owner)
	if err != nil {
		return nil, err
	}

	filtered, err := filterClips(collection, query.Filter, query.Category)
	if err != nil {
		return nil, err
	}
	sortClips(filtered, query.SortBy)

	stats, err := s.store.Stats(ctx, query.Owner)
	if err != nil {
		return nil, err
	}
	categories, err := s.store.Categories(ctx, query.Owner)
	if err != nil {
		return nil, err
	}

	return &ListResult{Clips: filtered, Stats: *stats, Categories: categories}, nil
}

// Get fetches a single clip.
func (s *Service) Get(ctx context.Context, clipID string) (*models.Clip, error) {
	if clipID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing clip id")
	}
	return s.store.GetOne(ctx, clipID)
}

// Create builds an operator-authored post. The external draft is created
// first so the stored record always references a real draft; a record-store
// failure afterwards leaves an orphaned draft upstream, which is logged.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Clip, error) {
	if input.MediaID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing media id")
	}

	postID, err := s.publisher.CreateDraft(ctx, postbridge.CreateDraftParams{
		MediaID:    input.MediaID,
		Caption:    input.SuggestedCaption,
		AccountIDs: input.AccountIDs,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	clip := &models.Clip{
		ClipID:           s.newID(),
		Owner:            input.Owner,
		Title:            input.Title,
		ClipURL:          input.ClipURL,
		Category:         input.Category,
		CategoryEmoji:    input.CategoryEmoji,
		SuggestedCaption: input.SuggestedCaption,
		Status:           enums.ClipStatusPendingReview,
		PostStatus:       enums.PostStatusNotPosted,
		PostBridgePostID: &postID,
		TargetAccounts:   input.AccountIDs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	stored, err := s.store.Add(ctx, clip)
	if err != nil {
		ctx := s.logg.WithFields(ctx, map[string]any{"post_id": postID})
		s.logg.Error(ctx, "clip record write failed after draft creation, draft orphaned", err)
		return nil, err
	}
	return stored, nil
}

// Approve transitions a clip to approved. When the clip is bound to an
// external draft the draft goes live first; an upstream rejection aborts the
// transition and nothing is committed locally.
func (s *Service) Approve(ctx context.Context, input ApproveInput) (*models.Clip, error) {
	if input.ClipID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing clip id")
	}

	clip, err := s.store.GetOne(ctx, input.ClipID)
	if err != nil {
		return nil, err
	}

	scheduledAt := input.ScheduledAt
	if input.LocalTime != "" {
		resolved, err := ResolveLocal(input.LocalTime, input.Timezone)
		if err != nil {
			return nil, err
		}
		scheduledAt = &resolved
	}

	if clip.PostBridgePostID != nil {
		if err := s.publisher.SetLive(ctx, *clip.PostBridgePostID, scheduledAt); err != nil {
			return nil, err
		}
	}

	approved := enums.ClipStatusApproved
	return s.store.Update(ctx, input.ClipID, ClipPatch{
		Status:           &approved,
		ScheduledAt:      scheduledAt,
		SetScheduledAt:   true,
		RejectionNote:    nil,
		SetRejectionNote: true,
	})
}

// Reject transitions a clip to rejected. The transition is unconditional and
// never touches the publishing service.
func (s *Service) Reject(ctx context.Context, clipID string, note *string) (*models.Clip, error) {
	if clipID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing clip id")
	}

	rejected := enums.ClipStatusRejected
	return s.store.Update(ctx, clipID, ClipPatch{
		Status:           &rejected,
		ScheduledAt:      nil,
		SetScheduledAt:   true,
		RejectionNote:    note,
		SetRejectionNote: true,
	})
}

// Update mutates clip metadata. Caption and account changes on a bound clip
// are pushed to the external draft first so the two sides never diverge.
func (s *Service) Update(ctx context.Context, clipID string, input UpdateInput) (*models.Clip, error) {
	if clipID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing clip id")
	}

	clip, err := s.store.GetOne(ctx, clipID)
	if err != nil {
		return nil, err
	}

	if clip.PostBridgePostID != nil && (input.SuggestedCaption != nil || input.AccountIDs != nil) {
		err := s.publisher.PatchDraft(ctx, *clip.PostBridgePostID, postbridge.DraftPatch{
			Caption:    input.SuggestedCaption,
			AccountIDs: input.AccountIDs,
		})
		if err != nil {
			return nil, err
		}
	}

	return s.store.Update(ctx, clipID, ClipPatch{
		Title:            input.Title,
		ClipURL:          input.ClipURL,
		SourceVideo:      input.SourceVideo,
		Category:         input.Category,
		CategoryEmoji:    input.CategoryEmoji,
		SuggestedCaption: input.SuggestedCaption,
		Transcript:       input.Transcript,
		TargetAccounts:   input.AccountIDs,
	})
}

// Remove retires a clip from review. A bound draft is reverted upstream on a
// best-effort basis; the local transition to rejected always commits.
func (s *Service) Remove(ctx context.Context, clipID string) (*models.Clip, error) {
	if clipID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing clip id")
	}

	clip, err := s.store.GetOne(ctx, clipID)
	if err != nil {
		return nil, err
	}

	if clip.PostBridgePostID != nil {
		if err := s.publisher.RevertToDraft(ctx, *clip.PostBridgePostID); err != nil {
			ctx := s.logg.WithClipID(ctx, clipID)
			s.logg.Warn(ctx, "draft revert failed, retiring clip anyway")
		}
	}

	rejected := enums.ClipStatusRejected
	return s.store.Update(ctx, clipID, ClipPatch{
		Status:         &rejected,
		ScheduledAt:    nil,
		SetScheduledAt: true,
	})
}

func filterClips(collection []models.Clip, filter, category string) ([]models.Clip, error) {
	filtered := make([]models.Clip, 0, len(collection))
	for i := range collection {
		clip := collection[i]
		if category != "" && clip.Category != category {
			continue
		}
		keep, err := matchesFilter(clip, filter)
		if err != nil {
			return nil, err
		}
		if keep {
			filtered = append(filtered, clip)
		}
	}
	return filtered, nil
}

func matchesFilter(clip models.Clip, filter string) (bool, error) {
	switch filter {
	case "", "all":
		return true, nil
	case "published":
		return clip.PostStatus == enums.PostStatusPublished, nil
	case enums.ClipStatusApproved.String():
		return clip.Status == enums.ClipStatusApproved &&
			clip.PostStatus == enums.PostStatusNotPosted, nil
	case enums.ClipStatusPendingReview.String(), enums.ClipStatusRejected.String():
		return clip.Status == enums.ClipStatus(filter), nil
	default:
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid filter %q", filter))
	}
}

func sortClips(collection []models.Clip, sortBy string) {
	switch sortBy {
	case "oldest":
		sort.SliceStable(collection, func(i, j int) bool {
			return collection[i].CreatedAt.Before(collection[j].CreatedAt)
		})
	case "scheduled":
		sort.SliceStable(collection, func(i, j int) bool {
			left, right := collection[i].ScheduledAt, collection[j].ScheduledAt
			switch {
			case left == nil:
				return false
			case right == nil:
				return true
			default:
				return left.Before(*right)
			}
		})
	default:
		sortNewestFirst(collection)
	}
}
