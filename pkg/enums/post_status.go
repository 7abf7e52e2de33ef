package enums

import "fmt"

// PostStatus tracks whether a clip has been published to any account.
// It is a second axis next to ClipStatus and is only advanced by the
// publish path, never reversed.
type PostStatus string

const (
	PostStatusNotPosted PostStatus = "not_posted"
	PostStatusPublished PostStatus = "published"
)

var validPostStatuses = []PostStatus{
	PostStatusNotPosted,
	PostStatusPublished,
}

// String returns the literal string for the status.
func (p PostStatus) String() string {
	return string(p)
}

// IsValid reports whether the status is known.
func (p PostStatus) IsValid() bool {
	for _, candidate := range validPostStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePostStatus converts raw input into a PostStatus.
func ParsePostStatus(value string) (PostStatus, error) {
	for _, candidate := range validPostStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid post status %q", value)
}
