// Package bytesize parses human-friendly byte sizes.
package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Binary units, longest suffix first so "KB" wins over "B".
var units = []struct {
	suffix string
	size   int64
}{
	{"TB", 1 << 40},
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// Parse parses sizes such as "512MB", "1.5GB" or "100kb" (1024-based).
func Parse(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		num := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
		if num == "" {
			return 0, fmt.Errorf("invalid size %q: missing numeric value", s)
		}
		value, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size value %q in %q: %w", num, s, err)
		}
		if value < 0 {
			return 0, fmt.Errorf("invalid size %q: negative value not allowed", s)
		}
		result := value * float64(u.size)
		if result > math.MaxInt64 {
			return 0, fmt.Errorf("size %q overflows int64", s)
		}
		return int64(result), nil
	}

	return 0, fmt.Errorf("invalid size %q: missing unit (supported: B, KB, MB, GB, TB)", s)
}
