package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipdeck-backend/api/middleware"
	"github.com/angelmondragon/clipdeck-backend/internal/clips"
	"github.com/angelmondragon/clipdeck-backend/internal/processing"
	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

type stubClipService struct {
	listFn    func(ctx context.Context, query clips.ListQuery) (*clips.ListResult, error)
	getFn     func(ctx context.Context, clipID string) (*models.Clip, error)
	createFn  func(ctx context.Context, input clips.CreateInput) (*models.Clip, error)
	approveFn func(ctx context.Context, input clips.ApproveInput) (*models.Clip, error)
	rejectFn  func(ctx context.Context, clipID string, note *string) (*models.Clip, error)
	updateFn  func(ctx context.Context, clipID string, input clips.UpdateInput) (*models.Clip, error)
	removeFn  func(ctx context.Context, clipID string) (*models.Clip, error)
	bulkFn    func(ctx context.Context, action enums.BulkAction, clipIDs []string, note *string) (*clips.BulkResult, error)
	publishFn func(ctx context.Context) (*clips.PublishReport, error)
}

func (s *stubClipService) List(ctx context.Context, query clips.ListQuery) (*clips.ListResult, error) {
	return s.listFn(ctx, query)
}

func (s *stubClipService) Get(ctx context.Context, clipID string) (*models.Clip, error) {
	return s.getFn(ctx, clipID)
}

func (s *stubClipService) Create(ctx context.Context, input clips.CreateInput) (*models.Clip, error) {
	return s.createFn(ctx, input)
}

func (s *stubClipService) Approve(ctx context.Context, input clips.ApproveInput) (*models.Clip, error) {
	return s.approveFn(ctx, input)
}

func (s *stubClipService) Reject(ctx context.Context, clipID string, note *string) (*models.Clip, error) {
	return s.rejectFn(ctx, clipID, note)
}

func (s *stubClipService) Update(ctx context.Context, clipID string, input clips.UpdateInput) (*models.Clip, error) {
	return s.updateFn(ctx, clipID, input)
}

func (s *stubClipService) Remove(ctx context.Context, clipID string) (*models.Clip, error) {
	return s.removeFn(ctx, clipID)
}

func (s *stubClipService) RunBulk(ctx context.Context, action enums.BulkAction, clipIDs []string, note *string) (*clips.BulkResult, error) {
	return s.bulkFn(ctx, action, clipIDs, note)
}

func (s *stubClipService) PublishApproved(ctx context.Context) (*clips.PublishReport, error) {
	return s.publishFn(ctx)
}

func testControllerLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{
		ServiceName: "clipdeck-test",
		Level:       logger.ParseLevel("error"),
		Output:      io.Discard,
	})
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeEnvelope(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
	return envelope
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestClipListPassesQueryAndOperator(t *testing.T) {
	var captured clips.ListQuery
	svc := &stubClipService{
		listFn: func(ctx context.Context, query clips.ListQuery) (*clips.ListResult, error) {
			captured = query
			return &clips.ListResult{Clips: []models.Clip{}, Stats: clips.StatsDTO{}}, nil
		},
	}

	req := jsonRequest(t, http.MethodGet, "/api/v1/clips?filter=approved&category=Mindset&sort_by=scheduled", nil)
	req = req.WithContext(middleware.WithOperatorID(req.Context(), "op-9"))
	res := httptest.NewRecorder()

	ClipList(svc, testControllerLogger(t))(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "op-9", captured.Owner)
	assert.Equal(t, "approved", captured.Filter)
	assert.Equal(t, "Mindset", captured.Category)
	assert.Equal(t, "scheduled", captured.SortBy)
}

func TestClipListServiceErrorMapsToStatus(t *testing.T) {
	svc := &stubClipService{
		listFn: func(ctx context.Context, query clips.ListQuery) (*clips.ListResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, `invalid filter "bogus"`)
		},
	}

	res := httptest.NewRecorder()
	ClipList(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodGet, "/api/v1/clips?filter=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, res.Code)
	envelope := decodeEnvelope(t, res)
	errBody := envelope["error"].(map[string]any)
	assert.Equal(t, `invalid filter "bogus"`, errBody["message"])
}

func TestClipCreateReturns201(t *testing.T) {
	var captured clips.CreateInput
	svc := &stubClipService{
		createFn: func(ctx context.Context, input clips.CreateInput) (*models.Clip, error) {
			captured = input
			return &models.Clip{ClipID: "pb_1_abcd1234", Title: input.Title}, nil
		},
	}

	req := jsonRequest(t, http.MethodPost, "/api/v1/clips", map[string]any{
		"title":       "  Morning routine  ",
		"media_id":    "media-1",
		"account_ids": []string{"acc-1", "acc-2"},
	})
	req = req.WithContext(middleware.WithOperatorID(req.Context(), "op-1"))
	res := httptest.NewRecorder()

	ClipCreate(svc, testControllerLogger(t))(res, req)

	assert.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, "Morning routine", captured.Title)
	assert.Equal(t, "media-1", captured.MediaID)
	assert.Equal(t, []string{"acc-1", "acc-2"}, captured.AccountIDs)
	assert.Equal(t, "op-1", captured.Owner)
}

func TestClipCreateRejectsMissingFields(t *testing.T) {
	svc := &stubClipService{
		createFn: func(ctx context.Context, input clips.CreateInput) (*models.Clip, error) {
			t.Fatal("service must not be called on invalid payload")
			return nil, nil
		},
	}

	res := httptest.NewRecorder()
	ClipCreate(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips", map[string]any{
		"title": "no media",
	}))

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestClipCreateRejectsUnknownFields(t *testing.T) {
	svc := &stubClipService{}

	res := httptest.NewRecorder()
	ClipCreate(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips", map[string]any{
		"title":       "ok",
		"media_id":    "media-1",
		"account_ids": []string{"acc-1"},
		"surprise":    true,
	}))

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestClipApproveParsesSchedule(t *testing.T) {
	var captured clips.ApproveInput
	svc := &stubClipService{
		approveFn: func(ctx context.Context, input clips.ApproveInput) (*models.Clip, error) {
			captured = input
			return &models.Clip{ClipID: input.ClipID, Status: enums.ClipStatusApproved}, nil
		},
	}

	res := httptest.NewRecorder()
	ClipApprove(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips/approve", map[string]any{
		"clip_id":      "pb_1_abcd1234",
		"scheduled_at": "2026-04-01T12:30:00-04:00",
	}))

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, captured.ScheduledAt)
	assert.Equal(t, time.Date(2026, 4, 1, 16, 30, 0, 0, time.UTC), *captured.ScheduledAt)
	assert.Equal(t, time.UTC, captured.ScheduledAt.Location())
}

func TestClipApprovePassesLocalTimeThrough(t *testing.T) {
	var captured clips.ApproveInput
	svc := &stubClipService{
		approveFn: func(ctx context.Context, input clips.ApproveInput) (*models.Clip, error) {
			captured = input
			return &models.Clip{ClipID: input.ClipID}, nil
		},
	}

	res := httptest.NewRecorder()
	ClipApprove(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips/approve", map[string]any{
		"clip_id":    "pb_1_abcd1234",
		"local_time": "2026-04-01T09:00",
		"timezone":   "America/New_York",
	}))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, captured.ScheduledAt)
	assert.Equal(t, "2026-04-01T09:00", captured.LocalTime)
	assert.Equal(t, "America/New_York", captured.Timezone)
}

func TestClipApproveRejectsBadTimestamp(t *testing.T) {
	svc := &stubClipService{
		approveFn: func(ctx context.Context, input clips.ApproveInput) (*models.Clip, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	res := httptest.NewRecorder()
	ClipApprove(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips/approve", map[string]any{
		"clip_id":      "pb_1_abcd1234",
		"scheduled_at": "tomorrow",
	}))

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestClipApproveUpstreamRejectionSurfacesMessage(t *testing.T) {
	svc := &stubClipService{
		approveFn: func(ctx context.Context, input clips.ApproveInput) (*models.Clip, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUpstream, "scheduled time must be in the future")
		},
	}

	res := httptest.NewRecorder()
	ClipApprove(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips/approve", map[string]any{
		"clip_id": "pb_1_abcd1234",
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	envelope := decodeEnvelope(t, res)
	errBody := envelope["error"].(map[string]any)
	assert.Equal(t, "scheduled time must be in the future", errBody["message"])
}

func TestClipRejectForwardsNote(t *testing.T) {
	var gotID string
	var gotNote *string
	svc := &stubClipService{
		rejectFn: func(ctx context.Context, clipID string, note *string) (*models.Clip, error) {
			gotID, gotNote = clipID, note
			return &models.Clip{ClipID: clipID, Status: enums.ClipStatusRejected}, nil
		},
	}

	res := httptest.NewRecorder()
	ClipReject(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips/reject", map[string]any{
		"clip_id": "pb_1_abcd1234",
		"note":    "off brand",
	}))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "pb_1_abcd1234", gotID)
	require.NotNil(t, gotNote)
	assert.Equal(t, "off brand", *gotNote)
}

func TestClipUpdateUsesPathParam(t *testing.T) {
	var gotID string
	var captured clips.UpdateInput
	svc := &stubClipService{
		updateFn: func(ctx context.Context, clipID string, input clips.UpdateInput) (*models.Clip, error) {
			gotID, captured = clipID, input
			return &models.Clip{ClipID: clipID}, nil
		},
	}

	req := jsonRequest(t, http.MethodPatch, "/api/v1/clips/pb_1_abcd1234", map[string]any{
		"suggested_caption": "new caption",
		"account_ids":       []string{"acc-3"},
	})
	req = withURLParam(req, "clipId", "pb_1_abcd1234")
	res := httptest.NewRecorder()

	ClipUpdate(svc, testControllerLogger(t))(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "pb_1_abcd1234", gotID)
	require.NotNil(t, captured.SuggestedCaption)
	assert.Equal(t, "new caption", *captured.SuggestedCaption)
	assert.Equal(t, []string{"acc-3"}, captured.AccountIDs)
}

func TestClipDeleteNotFound(t *testing.T) {
	svc := &stubClipService{
		removeFn: func(ctx context.Context, clipID string) (*models.Clip, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Clip "+clipID+" not found")
		},
	}

	req := withURLParam(jsonRequest(t, http.MethodDelete, "/api/v1/clips/ghost", nil), "clipId", "ghost")
	res := httptest.NewRecorder()

	ClipDelete(svc, testControllerLogger(t))(res, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
	envelope := decodeEnvelope(t, res)
	errBody := envelope["error"].(map[string]any)
	assert.Equal(t, "Clip ghost not found", errBody["message"])
}

func TestClipBulkActionForwardsPayload(t *testing.T) {
	var gotAction enums.BulkAction
	var gotIDs []string
	svc := &stubClipService{
		bulkFn: func(ctx context.Context, action enums.BulkAction, clipIDs []string, note *string) (*clips.BulkResult, error) {
			gotAction, gotIDs = action, clipIDs
			return &clips.BulkResult{Total: len(clipIDs), Successful: len(clipIDs)}, nil
		},
	}

	res := httptest.NewRecorder()
	ClipBulkAction(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips/bulk-action", map[string]any{
		"action":   "approve",
		"clip_ids": []string{"a", "b"},
	}))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, enums.BulkActionApprove, gotAction)
	assert.Equal(t, []string{"a", "b"}, gotIDs)
}

func TestClipBulkActionRejectsUnknownAction(t *testing.T) {
	svc := &stubClipService{
		bulkFn: func(ctx context.Context, action enums.BulkAction, clipIDs []string, note *string) (*clips.BulkResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	res := httptest.NewRecorder()
	ClipBulkAction(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/clips/bulk-action", map[string]any{
		"action":   "archive",
		"clip_ids": []string{"a"},
	}))

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestPublishReturnsReport(t *testing.T) {
	svc := &stubClipService{
		publishFn: func(ctx context.Context) (*clips.PublishReport, error) {
			return &clips.PublishReport{Total: 2, Published: 1, Failed: 1}, nil
		},
	}

	res := httptest.NewRecorder()
	Publish(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/publish", nil))

	assert.Equal(t, http.StatusOK, res.Code)
	envelope := decodeEnvelope(t, res)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(1), data["published"])
}

func TestPublishNoAccountsConfigured(t *testing.T) {
	svc := &stubClipService{
		publishFn: func(ctx context.Context) (*clips.PublishReport, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "no active social accounts connected")
		},
	}

	res := httptest.NewRecorder()
	Publish(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodPost, "/api/v1/publish", nil))

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

type stubProcessingService struct {
	result processing.CountResult
}

func (s *stubProcessingService) Count(ctx context.Context) processing.CountResult {
	return s.result
}

func TestProcessingCountNeverErrors(t *testing.T) {
	svc := &stubProcessingService{result: processing.CountResult{Count: 0, Known: false}}

	res := httptest.NewRecorder()
	ProcessingCount(svc, testControllerLogger(t))(res, jsonRequest(t, http.MethodGet, "/api/v1/processing/count", nil))

	assert.Equal(t, http.StatusOK, res.Code)
	envelope := decodeEnvelope(t, res)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(0), data["count"])
	assert.Equal(t, false, data["known"])
}
