package clips

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/postbridge"
)

// PublishApproved fans every approved, not-yet-posted clip out to all active
// connected accounts. Each clip's media is uploaded once and reused for one
// live post per account. Account failures are isolated: a clip flips to
// published when at least one account accepted it.
func (s *Service) PublishApproved(ctx context.Context) (*PublishReport, error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveDuration("publish_approved", time.Since(started))
	}()

	approved, err := s.store.GetByStatus(ctx, enums.ClipStatusApproved)
	if err != nil {
		return nil, err
	}
	queue := make([]models.Clip, 0, len(approved))
	for i := range approved {
		if approved[i].PostStatus == enums.PostStatusNotPosted {
			queue = append(queue, approved[i])
		}
	}

	report := &PublishReport{Total: len(queue), Results: make([]ClipPublishResult, 0, len(queue))}
	if len(queue) == 0 {
		s.logg.Info(ctx, "no approved clips to publish")
		return report, nil
	}

	accounts, err := s.publisher.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	active := accounts[:0:0]
	for _, account := range accounts {
		if account.IsActive() {
			active = append(active, account)
		}
	}
	if len(active) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "no active social accounts connected")
	}

	for i := range queue {
		result := s.publishClip(ctx, &queue[i], active)
		if result.Published {
			report.Published++
			s.metrics.IncPublished()
		} else {
			report.Failed++
			s.metrics.IncPublishFailed()
		}
		report.Results = append(report.Results, result)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"total":     report.Total,
		"published": report.Published,
		"failed":    report.Failed,
	})
	s.logg.Info(ctx, "fan-out publish completed")
	return report, nil
}

func (s *Service) publishClip(ctx context.Context, clip *models.Clip, accounts []postbridge.Account) ClipPublishResult {
	ctx = s.logg.WithClipID(ctx, clip.ClipID)
	result := ClipPublishResult{ClipID: clip.ClipID}

	caption := clip.SuggestedCaption
	if caption == "" {
		caption = clip.Title
	}

	mediaID, err := s.publisher.UploadMedia(ctx, clip.ClipURL, clip.ClipID+".mp4")
	s.metrics.IncUpstreamCall("upload_media", err == nil)
	if err != nil {
		result.Error = pkgerrors.Message(err)
		s.logg.Error(ctx, "media upload failed, skipping clip", err)
		return result
	}

	var accountErrs error
	for _, target := range accounts {
		entry := AccountPublishResult{AccountID: target.ID, Platform: target.Platform}
		postID, err := s.publisher.CreateLivePost(ctx, mediaID, caption, target.ID)
		s.metrics.IncUpstreamCall("create_live_post", err == nil)
		if err != nil {
			entry.Error = pkgerrors.Message(err)
			accountErrs = multierr.Append(accountErrs, err)
		} else {
			entry.Success = true
			entry.PostID = postID
			result.Platforms = append(result.Platforms, target.Platform)
		}
		result.Accounts = append(result.Accounts, entry)
	}

	if accountErrs != nil {
		s.logg.Error(ctx, "some accounts rejected the post", accountErrs)
	}

	if len(result.Platforms) == 0 {
		result.Error = "all accounts failed"
		return result
	}

	published := enums.PostStatusPublished
	if _, err := s.store.Update(ctx, clip.ClipID, ClipPatch{PostStatus: &published}); err != nil {
		// the posts are live; report success but surface the record drift
		s.logg.Error(ctx, "post status update failed after publish", err)
		result.Error = pkgerrors.Message(err)
	}
	result.Published = true
	return result
}
