// Package duration extends time.ParseDuration with day and week units.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Human-friendly units.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var humanPattern = regexp.MustCompile(`(\d+)([dw])`)

// Parse accepts standard Go durations plus "d" and "w", including compound
// forms like "1w2d" or "1d12h". "0" returns zero.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if s == "0" {
		return 0, nil
	}

	var total time.Duration
	for _, m := range humanPattern.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration value %q in %q", m[1], s)
		}
		unit := Day
		if m[2] == "w" {
			unit = Week
		}
		total += time.Duration(n) * unit
	}

	rest := strings.TrimSpace(humanPattern.ReplaceAllString(s, ""))
	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w (supported units: ns, us, ms, s, m, h, d, w)", s, err)
		}
		total += d
	}

	return total, nil
}
