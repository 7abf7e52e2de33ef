package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/clipdeck-backend/api/responses"
	"github.com/angelmondragon/clipdeck-backend/api/validators"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

type bulkActionRequest struct {
	Action  string   `json:"action" validate:"required,oneof=approve reject"`
	ClipIDs []string `json:"clip_ids" validate:"required,min=1"`
	Note    *string  `json:"note"`
}

// ClipBulkAction handles POST /api/v1/clips/bulk-action. The response always
// carries the per-item breakdown; partial failure is not an HTTP error.
func ClipBulkAction(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bulkActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action := enums.BulkAction(strings.TrimSpace(payload.Action))
		result, err := svc.RunBulk(r.Context(), action, payload.ClipIDs, payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
