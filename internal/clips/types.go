package clips

import (
	"time"

	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
)

// ClipPatch captures a partial mutation of a clip record. Nil pointer fields
// are left untouched. scheduled_at and rejection_note are nullable columns,
// so writing them (including writing null) is signalled by the Set* flags.
type ClipPatch struct {
	Title            *string
	ClipURL          *string
	SourceVideo      *string
	Category         *string
	CategoryEmoji    *string
	SuggestedCaption *string
	Transcript       *string
	Status           *enums.ClipStatus
	PostStatus       *enums.PostStatus
	TargetAccounts   []string

	ScheduledAt    *time.Time
	SetScheduledAt bool

	RejectionNote    *string
	SetRejectionNote bool
}

// IsZero reports whether the patch would change nothing.
func (p ClipPatch) IsZero() bool {
	return p.Title == nil && p.ClipURL == nil && p.SourceVideo == nil &&
		p.Category == nil && p.CategoryEmoji == nil && p.SuggestedCaption == nil &&
		p.Transcript == nil && p.Status == nil && p.PostStatus == nil &&
		p.TargetAccounts == nil && !p.SetScheduledAt && !p.SetRejectionNote
}

// BulkItemResult reports the outcome for one clip id inside a bulk operation.
type BulkItemResult struct {
	ClipID  string `json:"clip_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkResult is the aggregate outcome of a bulk transition.
type BulkResult struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []BulkItemResult `json:"results"`
}

// StatsDTO aggregates clip counts for the dashboard header.
type StatsDTO struct {
	Total           int        `json:"total"`
	Pending         int        `json:"pending"`
	Approved        int        `json:"approved"`
	Published       int        `json:"published"`
	Rejected        int        `json:"rejected"`
	NextScheduledAt *time.Time `json:"next_scheduled_at,omitempty"`
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Emoji    string `json:"emoji"`
	Count    int    `json:"count"`
}

// ListQuery scopes and orders a clip listing.
type ListQuery struct {
	Owner    string
	Filter   string
	Category string
	SortBy   string
}

// ListResult bundles the listing with the aggregates the dashboard renders.
type ListResult struct {
	Clips      []models.Clip   `json:"clips"`
	Stats      StatsDTO        `json:"stats"`
	Categories []CategoryCount `json:"categories"`
}

// CreateInput captures an operator-created post. The external draft is
// created first; the local record then references it.
type CreateInput struct {
	Title            string
	MediaID          string
	ClipURL          string
	SuggestedCaption string
	Category         string
	CategoryEmoji    string
	AccountIDs       []string
	Owner            string
}

// ApproveInput identifies the clip and the optional requested schedule.
// LocalTime plus Timezone takes precedence over ScheduledAt; it is resolved
// through the schedule resolver before the transition runs.
type ApproveInput struct {
	ClipID      string
	ScheduledAt *time.Time
	LocalTime   string
	Timezone    string
}

// UpdateInput is the operator-facing metadata mutation.
type UpdateInput struct {
	Title            *string
	ClipURL          *string
	SourceVideo      *string
	Category         *string
	CategoryEmoji    *string
	SuggestedCaption *string
	Transcript       *string
	AccountIDs       []string
}

// AccountPublishResult is the outcome for one account inside a fan-out.
type AccountPublishResult struct {
	AccountID string `json:"account_id"`
	Platform  string `json:"platform"`
	PostID    string `json:"post_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// ClipPublishResult is the per-clip outcome of a fan-out publish.
type ClipPublishResult struct {
	ClipID    string                 `json:"clip_id"`
	Published bool                   `json:"published"`
	Platforms []string               `json:"platforms"`
	Accounts  []AccountPublishResult `json:"accounts"`
	Error     string                 `json:"error,omitempty"`
}

// PublishReport is the aggregate outcome of publishing all approved clips.
type PublishReport struct {
	Total     int                 `json:"total"`
	Published int                 `json:"published"`
	Failed    int                 `json:"failed"`
	Results   []ClipPublishResult `json:"results"`
}
