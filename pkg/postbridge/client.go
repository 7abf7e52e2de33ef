package postbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/clipdeck-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

var errLoggerRequired = errors.New("postbridge logger is required")

// Client drives the Post Bridge publishing API. It performs no retries;
// every operation is independently retryable by the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

// NewClient initializes the Post Bridge wrapper. A missing API key is not an
// error here: operations report CONFIGURATION_ERROR when invoked without one,
// so the rest of the dashboard keeps working for unlinked clips.
func NewClient(cfg config.PostBridgeConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logg,
	}, nil
}

// Configured reports whether an API credential is on file.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// CreateDraft creates a draft post bound to an uploaded media asset and
// returns the new external post id.
func (c *Client) CreateDraft(ctx context.Context, params CreateDraftParams) (string, error) {
	if err := c.ensureConfigured(); err != nil {
		return "", err
	}
	c.log(ctx, "request", "create_draft", map[string]any{
		"media_id": params.MediaID,
		"accounts": len(params.AccountIDs),
	})

	var post Post
	err := c.do(ctx, http.MethodPost, "/posts", createPostRequest{
		Caption:    params.Caption,
		AccountIDs: params.AccountIDs,
		MediaIDs:   []string{params.MediaID},
		IsDraft:    true,
	}, &post)
	if err != nil {
		c.log(ctx, "error", "create_draft", map[string]any{"error": err.Error()})
		return "", err
	}

	c.log(ctx, "response", "create_draft", map[string]any{"post_id": post.ID})
	return post.ID, nil
}

// SetLive patches a draft to scheduled/published. A nil scheduledAt publishes
// immediately; a future instant schedules the post.
func (c *Client) SetLive(ctx context.Context, postID string, scheduledAt *time.Time) error {
	if err := c.ensureConfigured(); err != nil {
		return err
	}
	isDraft := false
	req := patchPostRequest{IsDraft: &isDraft}
	if scheduledAt != nil {
		formatted := scheduledAt.UTC().Format(time.RFC3339)
		req.ScheduledAt = &formatted
	}
	c.log(ctx, "request", "set_live", map[string]any{
		"post_id":   postID,
		"scheduled": scheduledAt != nil,
	})

	if err := c.do(ctx, http.MethodPatch, "/posts/"+postID, req, nil); err != nil {
		c.log(ctx, "error", "set_live", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "set_live", map[string]any{"post_id": postID})
	return nil
}

// RevertToDraft moves a post back to draft state. Callers treat failure as
// non-fatal; the error is still returned so they can log it.
func (c *Client) RevertToDraft(ctx context.Context, postID string) error {
	if err := c.ensureConfigured(); err != nil {
		return err
	}
	isDraft := true
	c.log(ctx, "request", "revert_to_draft", map[string]any{"post_id": postID})

	if err := c.do(ctx, http.MethodPatch, "/posts/"+postID, patchPostRequest{IsDraft: &isDraft}, nil); err != nil {
		c.log(ctx, "error", "revert_to_draft", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "revert_to_draft", map[string]any{"post_id": postID})
	return nil
}

// PatchDraft updates caption and/or target accounts on a bound draft.
func (c *Client) PatchDraft(ctx context.Context, postID string, patch DraftPatch) error {
	if err := c.ensureConfigured(); err != nil {
		return err
	}
	if patch.Caption == nil && patch.AccountIDs == nil {
		return nil
	}
	c.log(ctx, "request", "patch_draft", map[string]any{
		"post_id":      postID,
		"has_caption":  patch.Caption != nil,
		"has_accounts": patch.AccountIDs != nil,
	})

	req := patchPostRequest{Caption: patch.Caption, AccountIDs: patch.AccountIDs}
	if err := c.do(ctx, http.MethodPatch, "/posts/"+postID, req, nil); err != nil {
		c.log(ctx, "error", "patch_draft", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "patch_draft", map[string]any{"post_id": postID})
	return nil
}

// CreateLivePost creates a non-draft post for a single account. The fan-out
// publisher calls this once per active account.
func (c *Client) CreateLivePost(ctx context.Context, mediaID, caption, accountID string) (string, error) {
	if err := c.ensureConfigured(); err != nil {
		return "", err
	}
	c.log(ctx, "request", "create_live_post", map[string]any{
		"media_id":   mediaID,
		"account_id": accountID,
	})

	var post Post
	err := c.do(ctx, http.MethodPost, "/posts", createPostRequest{
		Caption:    caption,
		AccountIDs: []string{accountID},
		MediaIDs:   []string{mediaID},
		IsDraft:    false,
	}, &post)
	if err != nil {
		c.log(ctx, "error", "create_live_post", map[string]any{"error": err.Error()})
		return "", err
	}

	c.log(ctx, "response", "create_live_post", map[string]any{"post_id": post.ID})
	return post.ID, nil
}

// ListAccounts returns every connected social account, active or not.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	if err := c.ensureConfigured(); err != nil {
		return nil, err
	}
	c.log(ctx, "request", "list_accounts", nil)

	var resp accountListResponse
	if err := c.do(ctx, http.MethodGet, "/social-accounts", nil, &resp); err != nil {
		c.log(ctx, "error", "list_accounts", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "list_accounts", map[string]any{"count": len(resp.Data)})
	return resp.Data, nil
}

// UploadMedia downloads the source media and pushes it into the Post Bridge
// media library, returning the media id for subsequent post creation.
func (c *Client) UploadMedia(ctx context.Context, mediaURL, name string) (string, error) {
	if err := c.ensureConfigured(); err != nil {
		return "", err
	}
	c.log(ctx, "request", "upload_media", map[string]any{"name": name})

	data, mimeType, err := c.download(ctx, mediaURL)
	if err != nil {
		c.log(ctx, "error", "upload_media", map[string]any{"error": err.Error()})
		return "", err
	}

	var slot UploadSlot
	err = c.do(ctx, http.MethodPost, "/media/create-upload-url", createUploadURLRequest{
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
	}, &slot)
	if err != nil {
		c.log(ctx, "error", "upload_media", map[string]any{"error": err.Error()})
		return "", err
	}

	if err := c.uploadBytes(ctx, slot.UploadURL, data, mimeType); err != nil {
		c.log(ctx, "error", "upload_media", map[string]any{"error": err.Error()})
		return "", err
	}

	c.log(ctx, "response", "upload_media", map[string]any{"media_id": slot.MediaID})
	return slot.MediaID, nil
}

func (c *Client) ensureConfigured() error {
	if c == nil || c.apiKey == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "no Post Bridge API key on file")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding postbridge request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building postbridge request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "postbridge unreachable")
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.upstreamError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decoding postbridge response")
	}
	return nil
}

// upstreamError surfaces the upstream-provided message verbatim so operators
// can act on it ("scheduled time must be in the future").
func (c *Client) upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(raw))

	var parsed upstreamErrorBody
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			message = parsed.Message
		} else if parsed.Error != "" {
			message = parsed.Error
		}
	}
	if message == "" {
		message = fmt.Sprintf("postbridge returned status %d", resp.StatusCode)
	}

	code := pkgerrors.CodeUpstream
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		code = pkgerrors.CodeUnauthorized
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"status": resp.StatusCode})
}

func (c *Client) download(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media url")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "downloading source media")
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", pkgerrors.New(pkgerrors.CodeUpstream,
			fmt.Sprintf("source media fetch returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "reading source media")
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	return data, mimeType, nil
}

func (c *Client) uploadBytes(ctx context.Context, uploadURL string, data []byte, mimeType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building upload request")
	}
	req.Header.Set("Content-Type", mimeType)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "uploading media bytes")
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeUpstream,
			fmt.Sprintf("media upload returned status %d", resp.StatusCode))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("postbridge %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("postbridge %s", phase))
	}
}

func (c *Client) closeBody(ctx context.Context, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && c.logger != nil {
		c.logger.Warn(ctx, "failed to close postbridge response body")
	}
}
