package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SourceKind discriminates the raw payload shapes published by the collector.
type SourceKind string

const (
	SourceNational SourceKind = "national"
	SourceProvince SourceKind = "province"
	SourceVaccine  SourceKind = "vaccine"
)

// ErrUnknownSourceKind is returned for payloads naming no known source.
var ErrUnknownSourceKind = errors.New("unknown source kind")

// ParseSourceKind validates a kind name as found in headers, payloads, and URLs.
func ParseSourceKind(s string) (SourceKind, error) {
	switch k := SourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case SourceNational, SourceProvince, SourceVaccine:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSourceKind, s)
	}
}

// Daily reports whether points of this kind are one-per-day time series
// (as opposed to one-per-entity snapshots).
func (k SourceKind) Daily() bool {
	return k == SourceNational || k == SourceVaccine
}

// Vaccine dose names.
const (
	DoseFirst  = "first"
	DoseSecond = "second"
)

// CanonicalPoint is one entity (a province or a day) at one point in time.
// Points are immutable once built; a refresh replaces the whole series.
type CanonicalPoint struct {
	Label       string  `json:"label"`
	Incremental float64 `json:"incremental"`
	Cumulative  float64 `json:"cumulative"`
}

// ErrPointInvariant marks a point whose values break
// cumulative >= incremental >= 0.
var ErrPointInvariant = errors.New("point invariant violated")

// Validate checks cumulative >= incremental >= 0. Normalization does not call
// it; it is for upstream data checks that report rather than reject.
func (p CanonicalPoint) Validate() error {
	if p.Incremental < 0 {
		return fmt.Errorf("%w: %q incremental %g is negative", ErrPointInvariant, p.Label, p.Incremental)
	}
	if p.Cumulative < p.Incremental {
		return fmt.Errorf("%w: %q cumulative %g below incremental %g", ErrPointInvariant, p.Label, p.Cumulative, p.Incremental)
	}
	return nil
}

// SeriesMetadata summarizes a series. It is owned by the fetch that produced
// the series and is read-only downstream.
type SeriesMetadata struct {
	LastUpdated time.Time `json:"last_updated"`
	ToDay       float64   `json:"to_day"`
	Total       float64   `json:"total"`
}

// Series is a normalized snapshot of one source, in upstream order.
type Series struct {
	Kind     SourceKind       `json:"kind"`
	Dose     string           `json:"dose,omitempty"`
	Points   []CanonicalPoint `json:"points"`
	Metadata SeriesMetadata   `json:"metadata"`

	// Ratio is the precomputed coverage ratio of a vaccine dose series.
	Ratio float64 `json:"ratio,omitempty"`
}

// Key identifies the series in the store and in view IDs,
// e.g. "province" or "vaccine.first".
func (s Series) Key() string {
	return SeriesKey(s.Kind, s.Dose)
}

// SeriesKey builds a series key from its parts.
func SeriesKey(kind SourceKind, dose string) string {
	if dose == "" {
		return string(kind)
	}
	return string(kind) + "." + dose
}
