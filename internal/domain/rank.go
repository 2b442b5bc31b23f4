package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Metric selects which value of a point ranking sorts by.
type Metric string

const (
	MetricIncremental Metric = "incremental"
	MetricCumulative  Metric = "cumulative"
)

// Metrics lists every metric in the order views are built.
var Metrics = []Metric{MetricCumulative, MetricIncremental}

// ErrUnknownMetric is returned by ParseMetric for unsupported names.
var ErrUnknownMetric = errors.New("unknown metric")

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricIncremental, MetricCumulative:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Value returns the point's value for m.
func (p CanonicalPoint) Value(m Metric) float64 {
	if m == MetricIncremental {
		return p.Incremental
	}
	return p.Cumulative
}

// Rank returns the topN points with the highest value for metric, highest
// first. Equal values keep their input order. The input is never reordered,
// so one series can be ranked by several metrics at once. topN <= 0 yields
// an empty slice.
func Rank(points []CanonicalPoint, metric Metric, topN int) []CanonicalPoint {
	if topN <= 0 || len(points) == 0 {
		return []CanonicalPoint{}
	}

	ranked := slices.Clone(points)
	slices.SortStableFunc(ranked, func(a, b CanonicalPoint) int {
		return cmp.Compare(b.Value(metric), a.Value(metric))
	})

	if topN < len(ranked) {
		ranked = ranked[:topN:topN]
	}
	return ranked
}
