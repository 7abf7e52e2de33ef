package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
)

// Clip is the reviewable content unit. The same shape is persisted as a row
// in Postgres and as an element of the blob-store JSON document, so every
// field carries both gorm and json tags.
type Clip struct {
	ClipID           string           `gorm:"column:clip_id;primaryKey" json:"clip_id"`
	Owner            string           `gorm:"column:owner;index" json:"owner,omitempty"`
	Title            string           `gorm:"column:title" json:"title"`
	ClipURL          string           `gorm:"column:clip_url" json:"clip_url"`
	SourceVideo      string           `gorm:"column:source_video" json:"source_video,omitempty"`
	Category         string           `gorm:"column:category" json:"category,omitempty"`
	CategoryEmoji    string           `gorm:"column:category_emoji" json:"category_emoji,omitempty"`
	SuggestedCaption string           `gorm:"column:suggested_caption" json:"suggested_caption,omitempty"`
	Transcript       string           `gorm:"column:transcript" json:"transcript,omitempty"`
	Status           enums.ClipStatus `gorm:"column:status;index;not null;default:pending_review" json:"status"`
	PostStatus       enums.PostStatus `gorm:"column:post_status;index;not null;default:not_posted" json:"post_status"`
	ScheduledAt      *time.Time       `gorm:"column:scheduled_at" json:"scheduled_at,omitempty"`
	RejectionNote    *string          `gorm:"column:rejection_note" json:"rejection_note,omitempty"`
	PostBridgePostID *string          `gorm:"column:postbridge_post_id" json:"postbridge_post_id,omitempty"`
	VizardProjectID  *string          `gorm:"column:vizard_project_id" json:"vizard_project_id,omitempty"`
	TargetAccounts   pq.StringArray   `gorm:"column:target_accounts;type:text[]" json:"target_accounts,omitempty"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name for the relational backend.
func (Clip) TableName() string {
	return "clips"
}
