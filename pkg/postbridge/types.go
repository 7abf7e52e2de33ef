package postbridge

import "time"

// Post is a post resource in the Post Bridge publishing service.
type Post struct {
	ID          string     `json:"id"`
	Caption     string     `json:"caption"`
	IsDraft     bool       `json:"is_draft"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	AccountIDs  []string   `json:"social_accounts,omitempty"`
	MediaIDs    []string   `json:"media,omitempty"`
}

// Account is a connected social account.
type Account struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// IsActive reports whether the account can receive new posts.
func (a Account) IsActive() bool {
	return a.Status == "active"
}

// CreateDraftParams captures the fields for a new draft post.
type CreateDraftParams struct {
	MediaID    string
	Caption    string
	AccountIDs []string
}

// DraftPatch carries the optional fields Update pushes to a bound draft.
// Nil fields are left untouched upstream.
type DraftPatch struct {
	Caption    *string
	AccountIDs []string
}

// UploadSlot is the response to an upload-url request.
type UploadSlot struct {
	MediaID   string `json:"media_id"`
	UploadURL string `json:"upload_url"`
}

type createPostRequest struct {
	Caption    string   `json:"caption"`
	AccountIDs []string `json:"social_accounts"`
	MediaIDs   []string `json:"media"`
	IsDraft    bool     `json:"is_draft"`
}

type patchPostRequest struct {
	Caption     *string  `json:"caption,omitempty"`
	AccountIDs  []string `json:"social_accounts,omitempty"`
	IsDraft     *bool    `json:"is_draft,omitempty"`
	ScheduledAt *string  `json:"scheduled_at,omitempty"`
}

type createUploadURLRequest struct {
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

type accountListResponse struct {
	Data []Account `json:"data"`
}

type upstreamErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
