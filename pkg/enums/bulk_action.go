package enums

// BulkAction represents the state transition a bulk request applies.
type BulkAction string

const (
	// BulkActionApprove approves every listed clip.
	BulkActionApprove BulkAction = "approve"
	// BulkActionReject rejects every listed clip, optionally with a shared note.
	BulkActionReject BulkAction = "reject"
)

// String returns the literal string for the action.
func (b BulkAction) String() string {
	return string(b)
}

// IsValid reports whether the action is known.
func (b BulkAction) IsValid() bool {
	return b == BulkActionApprove || b == BulkActionReject
}
