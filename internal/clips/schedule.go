package clips

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
)

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ResolveLocal converts an operator-chosen wall-clock time with no zone
// information plus an IANA zone into the correct absolute UTC instant.
//
// The naive string is first read as if it were UTC to obtain a reference
// instant. Rendering that reference in the target zone yields the zone's
// effective offset at that moment, and subtracting the offset from the
// reference produces the true instant. Because the offset comes from the
// instant being scheduled rather than a static table, DST transitions are
// handled correctly.
func ResolveLocal(naive, zone string) (time.Time, error) {
	naive = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(naive), "Z"))
	if naive == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "scheduled time is required")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(zone))
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid timezone %q", zone))
	}

	var ref time.Time
	parsed := false
	for _, layout := range naiveLayouts {
		if ref, err = time.Parse(layout, naive); err == nil {
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid scheduled time %q", naive))
	}

	_, offsetSeconds := ref.In(loc).Zone()
	return ref.Add(-time.Duration(offsetSeconds) * time.Second).UTC(), nil
}
