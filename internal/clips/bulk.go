package clips

import (
	"context"
	"time"

	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
)

// RunBulk applies a review transition to each clip id independently. One bad
// id, or one upstream rejection, never blocks the rest of the batch; the
// caller gets a per-item breakdown.
func (s *Service) RunBulk(ctx context.Context, action enums.BulkAction, clipIDs []string, note *string) (*BulkResult, error) {
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid bulk action")
	}
	if len(clipIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no clip ids provided")
	}

	started := time.Now()
	result := &BulkResult{
		Total:   len(clipIDs),
		Results: make([]BulkItemResult, 0, len(clipIDs)),
	}

	for _, clipID := range clipIDs {
		var err error
		switch action {
		case enums.BulkActionApprove:
			_, err = s.Approve(ctx, ApproveInput{ClipID: clipID})
		case enums.BulkActionReject:
			_, err = s.Reject(ctx, clipID, note)
		}

		item := BulkItemResult{ClipID: clipID, Success: err == nil}
		if err != nil {
			item.Error = pkgerrors.Message(err)
			result.Failed++
		} else {
			result.Successful++
		}
		s.metrics.IncBulkItem(action.String(), err == nil)
		result.Results = append(result.Results, item)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"action":     action.String(),
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
	})
	s.logg.Info(ctx, "bulk transition completed")
	s.metrics.ObserveDuration("bulk_"+action.String(), time.Since(started))
	return result, nil
}
