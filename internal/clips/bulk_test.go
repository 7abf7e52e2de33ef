package clips

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
)

func TestRunBulkApproveMixedResults(t *testing.T) {
	store := newStubStore(unboundClip("clip-1"), unboundClip("clip-2"))
	svc := newTestService(store, &stubPublisher{})

	result, err := svc.RunBulk(context.Background(), enums.BulkActionApprove,
		[]string{"clip-1", "ghost", "clip-2"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)

	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.Equal(t, "Clip ghost not found", result.Results[1].Error)
	assert.True(t, result.Results[2].Success)

	approved, err := store.GetOne(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Equal(t, enums.ClipStatusApproved, approved.Status)
}

func TestRunBulkRejectSharesNote(t *testing.T) {
	store := newStubStore(unboundClip("clip-1"), unboundClip("clip-2"))
	svc := newTestService(store, &stubPublisher{})

	result, err := svc.RunBulk(context.Background(), enums.BulkActionReject,
		[]string{"clip-1", "clip-2"}, strPtr("off brand"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Successful)

	for _, clipID := range []string{"clip-1", "clip-2"} {
		clip, err := store.GetOne(context.Background(), clipID)
		require.NoError(t, err)
		assert.Equal(t, enums.ClipStatusRejected, clip.Status)
		require.NotNil(t, clip.RejectionNote)
		assert.Equal(t, "off brand", *clip.RejectionNote)
	}
}

func TestRunBulkUpstreamFailureIsolatedPerItem(t *testing.T) {
	bound := boundClip("clip-bound", "post-1")
	store := newStubStore(bound, unboundClip("clip-free"))
	pub := &stubPublisher{
		setLiveErr: pkgerrors.New(pkgerrors.CodeUpstream, "account disconnected"),
	}
	svc := newTestService(store, pub)

	result, err := svc.RunBulk(context.Background(), enums.BulkActionApprove,
		[]string{"clip-bound", "clip-free"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "account disconnected", result.Results[0].Error)
	assert.True(t, result.Results[1].Success)
}

func TestRunBulkValidation(t *testing.T) {
	svc := newTestService(newStubStore(), &stubPublisher{})

	_, err := svc.RunBulk(context.Background(), enums.BulkAction("archive"), []string{"clip-1"}, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.RunBulk(context.Background(), enums.BulkActionApprove, nil, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
