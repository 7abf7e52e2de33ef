package enums

import "fmt"

// ClipStatus describes the review state of a clip.
type ClipStatus string

const (
	ClipStatusPendingReview ClipStatus = "pending_review"
	ClipStatusApproved      ClipStatus = "approved"
	ClipStatusRejected      ClipStatus = "rejected"
)

var validClipStatuses = []ClipStatus{
	ClipStatusPendingReview,
	ClipStatusApproved,
	ClipStatusRejected,
}

// String returns the literal string for the status.
func (c ClipStatus) String() string {
	return string(c)
}

// IsValid reports whether the status is known.
func (c ClipStatus) IsValid() bool {
	for _, candidate := range validClipStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClipStatus converts raw input into a ClipStatus.
func ParseClipStatus(value string) (ClipStatus, error) {
	for _, candidate := range validClipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid clip status %q", value)
}
