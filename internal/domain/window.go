package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Range is a trailing time window over a daily series.
type Range string

const (
	RangeAll   Range = "all"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// Ranges lists every range in the order views are built.
var Ranges = []Range{RangeAll, RangeMonth, RangeWeek}

// ErrUnknownRange is returned by ParseRange for unsupported names.
var ErrUnknownRange = errors.New("unknown range")

// ParseRange validates a range name. An empty name means RangeAll.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeWeek, RangeMonth:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
	}
}

// Days is the number of trailing points the range keeps, or 0 for all.
func (r Range) Days() int {
	switch r {
	case RangeWeek:
		return 7
	case RangeMonth:
		return 30
	default:
		return 0
	}
}

// FilterRange returns a copy of the trailing points of a chronological series.
func FilterRange(points []CanonicalPoint, r Range) []CanonicalPoint {
	start := 0
	if n := r.Days(); n > 0 && len(points) > n {
		start = len(points) - n
	}
	out := make([]CanonicalPoint, len(points)-start)
	copy(out, points[start:])
	return out
}
