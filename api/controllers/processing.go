package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/clipdeck-backend/api/responses"
	"github.com/angelmondragon/clipdeck-backend/internal/processing"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

// ProcessingService answers in-flight clip job counts.
type ProcessingService interface {
	Count(ctx context.Context) processing.CountResult
}

// ProcessingCount handles GET /api/v1/processing/count. The count degrades
// to known=false instead of failing when the upstream is slow.
func ProcessingCount(svc ProcessingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Count(r.Context()))
	}
}
