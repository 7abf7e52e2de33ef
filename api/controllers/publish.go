package controllers

import (
	"net/http"

	"github.com/angelmondragon/clipdeck-backend/api/responses"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

// Publish handles POST /api/v1/publish: fan every approved, unposted clip out
// to the connected accounts. Per-clip and per-account outcomes land in the
// response body; only a total inability to run reports as an HTTP error.
func Publish(svc ClipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.PublishApproved(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
