// workflow/numbering.go
package workflow

import (
	"context"
	"fmt"
	"regexp"
)

// numberPrefix opens every application number.
const numberPrefix = "VF"

var numberPattern = regexp.MustCompile(`^VF\d{2}\d{6}$`)

// Sequencer hands out monotonically increasing sequence values per
// calendar year. Implementations must be safe for concurrent use and
// must never return the same value twice for a year.
type Sequencer interface {
	Next(ctx context.Context, year int) (int64, error)
}

// FormatNumber renders an application number from a year and a
// sequence value: the VF prefix, the last two digits of the year, and
// the sequence zero-padded to six digits.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%02d%06d", numberPrefix, year%100, seq)
}

// IsApplicationNumber reports whether s has the VFyynnnnnn shape.
func IsApplicationNumber(s string) bool {
	return numberPattern.MatchString(s)
}
