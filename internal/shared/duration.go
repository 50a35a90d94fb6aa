package shared

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Forever is the max age used to read a cache entry regardless of how old it is.
const Forever = time.Duration(math.MaxInt64)

const (
	day  = 24 * time.Hour
	year = 365 * day
)

var durationUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': day,
	'y': year,
}

// ParseDuration parses the compact cache duration grammar: an integer followed by one of s, m, h, d or y.
//
// "0s" means an entry is always stale. Values that overflow [time.Duration] clamp to [Forever],
// so "999y" reads as "never expires".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	unit, ok := durationUnits[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidDuration, s)
	}

	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	if n > int64(Forever/unit) {
		return Forever, nil
	}

	return time.Duration(n) * unit, nil
}
