package clips

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/postbridge"
)

func activeAccount(id, platform string) postbridge.Account {
	return postbridge.Account{ID: id, Platform: platform, Status: "active"}
}

func approvedClip(clipID string) *stubStore {
	clip := unboundClip(clipID)
	clip.Status = enums.ClipStatusApproved
	clip.SuggestedCaption = "caption for " + clipID
	return newStubStore(clip)
}

func TestPublishApprovedFansOutToAllActiveAccounts(t *testing.T) {
	store := approvedClip("clip-1")
	pub := &stubPublisher{
		accounts: []postbridge.Account{
			activeAccount("acc-1", "tiktok"),
			activeAccount("acc-2", "instagram"),
			{ID: "acc-3", Platform: "youtube", Status: "disconnected"},
		},
	}
	svc := newTestService(store, pub)

	report, err := svc.PublishApproved(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.True(t, result.Published)
	assert.ElementsMatch(t, []string{"tiktok", "instagram"}, result.Platforms)
	require.Len(t, result.Accounts, 2)

	// media uploaded once, one live post per active account
	uploads := 0
	for _, call := range pub.calls {
		if call == "upload_media" {
			uploads++
		}
	}
	assert.Equal(t, 1, uploads)
	assert.Contains(t, pub.calls, "live:acc-1")
	assert.Contains(t, pub.calls, "live:acc-2")
	assert.NotContains(t, pub.calls, "live:acc-3")

	published, err := store.GetOne(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PostStatusPublished, published.PostStatus)
}

func TestPublishApprovedPartialAccountFailureStillPublishes(t *testing.T) {
	store := approvedClip("clip-1")
	pub := &stubPublisher{
		accounts: []postbridge.Account{activeAccount("acc-1", "tiktok"), activeAccount("acc-2", "instagram")},
		liveErrs: map[string]error{
			"acc-2": pkgerrors.New(pkgerrors.CodeUpstream, "caption too long"),
		},
	}
	svc := newTestService(store, pub)

	report, err := svc.PublishApproved(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Published)
	result := report.Results[0]
	assert.True(t, result.Published)
	assert.Equal(t, []string{"tiktok"}, result.Platforms)

	var failed *AccountPublishResult
	for i := range result.Accounts {
		if result.Accounts[i].AccountID == "acc-2" {
			failed = &result.Accounts[i]
		}
	}
	require.NotNil(t, failed)
	assert.False(t, failed.Success)
	assert.Equal(t, "caption too long", failed.Error)

	published, err := store.GetOne(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PostStatusPublished, published.PostStatus)
}

func TestPublishApprovedAllAccountsFailKeepsClipUnposted(t *testing.T) {
	store := approvedClip("clip-1")
	pub := &stubPublisher{
		accounts: []postbridge.Account{activeAccount("acc-1", "tiktok")},
		liveErrs: map[string]error{
			"acc-1": pkgerrors.New(pkgerrors.CodeUpstream, "account suspended"),
		},
	}
	svc := newTestService(store, pub)

	report, err := svc.PublishApproved(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Published)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.Results[0].Published)
	assert.Equal(t, "all accounts failed", report.Results[0].Error)

	clip, err := store.GetOne(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PostStatusNotPosted, clip.PostStatus)
}

func TestPublishApprovedUploadFailureSkipsClip(t *testing.T) {
	store := approvedClip("clip-1")
	pub := &stubPublisher{
		accounts:  []postbridge.Account{activeAccount("acc-1", "tiktok")},
		uploadErr: pkgerrors.New(pkgerrors.CodeUpstream, "media too large"),
	}
	svc := newTestService(store, pub)

	report, err := svc.PublishApproved(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "media too large", report.Results[0].Error)
	assert.NotContains(t, pub.calls, "live:acc-1")
}

func TestPublishApprovedSkipsAlreadyPublished(t *testing.T) {
	clip := unboundClip("clip-live")
	clip.Status = enums.ClipStatusApproved
	clip.PostStatus = enums.PostStatusPublished

	store := newStubStore(clip)
	pub := &stubPublisher{accounts: []postbridge.Account{activeAccount("acc-1", "tiktok")}}
	svc := newTestService(store, pub)

	report, err := svc.PublishApproved(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Total)
	assert.Empty(t, pub.calls)
}

func TestPublishApprovedNoActiveAccounts(t *testing.T) {
	store := approvedClip("clip-1")
	pub := &stubPublisher{
		accounts: []postbridge.Account{{ID: "acc-1", Platform: "tiktok", Status: "disconnected"}},
	}
	svc := newTestService(store, pub)

	_, err := svc.PublishApproved(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.As(err).Code())
}
