package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/clipdeck-backend/api/middleware"
	"github.com/angelmondragon/clipdeck-backend/api/responses"
	"github.com/angelmondragon/clipdeck-backend/api/validators"
	"github.com/angelmondragon/clipdeck-backend/internal/clips"
	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

// ClipService is the lifecycle surface the clip controllers drive.
type ClipService interface {
	List(ctx context.Context, query clips.ListQuery) (*clips.ListResult, error)
	Get(ctx context.Context, clipID string) (*models.Clip, error)
	Create(ctx context.Context, input clips.CreateInput) (*models.Clip, error)
	Approve(ctx context.Context, input clips.ApproveInput) (*models.Clip, error)
	Reject(ctx context.Context, clipID string, note *string) (*models.Clip, error)
	Update(ctx context.Context, clipID string, input clips.UpdateInput) (*models.Clip, error)
	Remove(ctx context.Context, clipID string) (*models.Clip, error)
	RunBulk(ctx context.Context, action enums.BulkAction, clipIDs []string, note *string) (*clips.BulkResult, error)
	PublishApproved(ctx context.Context) (*clips.PublishReport, error)
}

// ClipList handles GET /api/v1/clips.
func ClipList(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := clips.ListQuery{
			Owner:    middleware.OperatorIDFromContext(r.Context()),
			Filter:   strings.TrimSpace(r.URL.Query().Get("filter")),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			SortBy:   strings.TrimSpace(r.URL.Query().Get("sort_by")),
		}

		result, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ClipDetail handles GET /api/v1/clips/{clipId}.
func ClipDetail(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := svc.Get(r.Context(), chi.URLParam(r, "clipId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clip)
	}
}

type clipCreateRequest struct {
	Title            string   `json:"title" validate:"required"`
	MediaID          string   `json:"media_id" validate:"required"`
	ClipURL          string   `json:"clip_url"`
	SuggestedCaption string   `json:"suggested_caption"`
	Category         string   `json:"category"`
	CategoryEmoji    string   `json:"category_emoji"`
	AccountIDs       []string `json:"account_ids" validate:"required,min=1"`
}

// ClipCreate handles POST /api/v1/clips.
func ClipCreate(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload clipCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), clips.CreateInput{
			Title:            strings.TrimSpace(payload.Title),
			MediaID:          strings.TrimSpace(payload.MediaID),
			ClipURL:          strings.TrimSpace(payload.ClipURL),
			SuggestedCaption: payload.SuggestedCaption,
			Category:         strings.TrimSpace(payload.Category),
			CategoryEmoji:    strings.TrimSpace(payload.CategoryEmoji),
			AccountIDs:       payload.AccountIDs,
			Owner:            middleware.OperatorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type clipApproveRequest struct {
	ClipID      string `json:"clip_id" validate:"required"`
	ScheduledAt string `json:"scheduled_at"`
	LocalTime   string `json:"local_time"`
	Timezone    string `json:"timezone"`
}

// ClipApprove handles POST /api/v1/clips/approve.
func ClipApprove(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload clipApproveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := clips.ApproveInput{
			ClipID:    strings.TrimSpace(payload.ClipID),
			LocalTime: strings.TrimSpace(payload.LocalTime),
			Timezone:  strings.TrimSpace(payload.Timezone),
		}
		if raw := strings.TrimSpace(payload.ScheduledAt); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scheduled_at"))
				return
			}
			utc := parsed.UTC()
			input.ScheduledAt = &utc
		}

		clip, err := svc.Approve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clip)
	}
}

type clipRejectRequest struct {
	ClipID string  `json:"clip_id" validate:"required"`
	Note   *string `json:"note"`
}

// ClipReject handles POST /api/v1/clips/reject.
func ClipReject(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload clipRejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clip, err := svc.Reject(r.Context(), strings.TrimSpace(payload.ClipID), payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clip)
	}
}

type clipUpdateRequest struct {
	Title            *string  `json:"title"`
	ClipURL          *string  `json:"clip_url"`
	SourceVideo      *string  `json:"source_video"`
	Category         *string  `json:"category"`
	CategoryEmoji    *string  `json:"category_emoji"`
	SuggestedCaption *string  `json:"suggested_caption"`
	Transcript       *string  `json:"transcript"`
	AccountIDs       []string `json:"account_ids"`
}

// ClipUpdate handles PATCH /api/v1/clips/{clipId}.
func ClipUpdate(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload clipUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clip, err := svc.Update(r.Context(), chi.URLParam(r, "clipId"), clips.UpdateInput{
			Title:            payload.Title,
			ClipURL:          payload.ClipURL,
			SourceVideo:      payload.SourceVideo,
			Category:         payload.Category,
			CategoryEmoji:    payload.CategoryEmoji,
			SuggestedCaption: payload.SuggestedCaption,
			Transcript:       payload.Transcript,
			AccountIDs:       payload.AccountIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clip)
	}
}

// ClipDelete handles DELETE /api/v1/clips/{clipId}. Deletion is a soft
// delete: the clip transitions to rejected and any bound draft is reverted.
func ClipDelete(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := svc.Remove(r.Context(), chi.URLParam(r, "clipId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clip)
	}
}
