package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SourceKindHeader is the message header naming the payload's source kind.
const SourceKindHeader = "source_kind"

// SeriesPayload is a decoded source message: one block of raw records per
// series the message carries (vaccine payloads carry two).
type SeriesPayload struct {
	Kind      SourceKind
	Timestamp time.Time
	Blocks    []PayloadBlock
}

// PayloadBlock holds the raw records of one series and its upstream summary.
type PayloadBlock struct {
	Dose     string
	Records  []json.RawMessage
	Metadata SeriesMetadata
	Ratio    float64

	// HasMetadata is false for sources that publish no summary of their own.
	HasMetadata bool
}

type envelope struct {
	Kind string `json:"kind"`
}

type summaryPayload struct {
	LastUpdated json.RawMessage `json:"lastUpdated"`
	ToDay       json.RawMessage `json:"toDay"`
	Total       json.RawMessage `json:"total"`
}

type provincePayload struct {
	summaryPayload
	Cases []json.RawMessage `json:"cases"`
}

type nationalPayload struct {
	Days []json.RawMessage `json:"days"`
}

type dosePayload struct {
	summaryPayload
	Datas []json.RawMessage `json:"datas"`
}

type vaccinePayload struct {
	FirstRatio  json.RawMessage `json:"firstRatio"`
	SecondRatio json.RawMessage `json:"secondRatio"`
	First       dosePayload     `json:"first"`
	Second      dosePayload     `json:"second"`
}

// ParseSeriesPayload decodes a raw source message into its per-series blocks.
// The kind comes from the source_kind header, falling back to the payload's
// "kind" field. Record-level problems are left for Normalize; only an
// undecodable envelope or unknown kind fails here.
func ParseSeriesPayload(raw RawEvent) (SeriesPayload, error) {
	value := bytes.TrimSpace(raw.Value)
	if len(value) == 0 {
		return SeriesPayload{}, fmt.Errorf("parse series payload: empty message")
	}

	kindName := raw.Headers[SourceKindHeader]
	if kindName == "" && value[0] == '{' {
		var env envelope
		if err := json.Unmarshal(value, &env); err != nil {
			return SeriesPayload{}, fmt.Errorf("parse series payload: %w", err)
		}
		kindName = env.Kind
	}
	kind, err := ParseSourceKind(kindName)
	if err != nil {
		return SeriesPayload{}, fmt.Errorf("parse series payload: %w", err)
	}

	p := SeriesPayload{Kind: kind, Timestamp: raw.Timestamp}
	switch kind {
	case SourceProvince:
		err = p.decodeProvince(value)
	case SourceNational:
		err = p.decodeNational(value)
	case SourceVaccine:
		err = p.decodeVaccine(value)
	}
	if err != nil {
		return SeriesPayload{}, fmt.Errorf("parse %s payload: %w", kind, err)
	}
	return p, nil
}

func (p *SeriesPayload) decodeProvince(value []byte) error {
	var pp provincePayload
	if err := json.Unmarshal(value, &pp); err != nil {
		return err
	}
	p.Blocks = []PayloadBlock{{
		Records:     pp.Cases,
		Metadata:    pp.summaryPayload.metadata(),
		HasMetadata: true,
	}}
	return nil
}

// decodeNational accepts the {"days": [...]} envelope or a bare array of days.
func (p *SeriesPayload) decodeNational(value []byte) error {
	var days []json.RawMessage
	if value[0] == '[' {
		if err := json.Unmarshal(value, &days); err != nil {
			return err
		}
	} else {
		var np nationalPayload
		if err := json.Unmarshal(value, &np); err != nil {
			return err
		}
		days = np.Days
	}
	p.Blocks = []PayloadBlock{{Records: days}}
	return nil
}

func (p *SeriesPayload) decodeVaccine(value []byte) error {
	var vp vaccinePayload
	if err := json.Unmarshal(value, &vp); err != nil {
		return err
	}
	p.Blocks = []PayloadBlock{
		{
			Dose:        DoseFirst,
			Records:     vp.First.Datas,
			Metadata:    vp.First.metadata(),
			Ratio:       numberOrZero(vp.FirstRatio),
			HasMetadata: true,
		},
		{
			Dose:        DoseSecond,
			Records:     vp.Second.Datas,
			Metadata:    vp.Second.metadata(),
			Ratio:       numberOrZero(vp.SecondRatio),
			HasMetadata: true,
		},
	}
	return nil
}

// metadata is lenient: summary fields are informational, so an unreadable
// value becomes zero instead of failing the payload.
func (s summaryPayload) metadata() SeriesMetadata {
	md := SeriesMetadata{
		ToDay: numberOrZero(s.ToDay),
		Total: numberOrZero(s.Total),
	}
	if ms := numberOrZero(s.LastUpdated); ms > 0 {
		md.LastUpdated = time.UnixMilli(int64(ms)).UTC()
	}
	return md
}

func numberOrZero(raw json.RawMessage) float64 {
	v, err := parseNumber(raw)
	if err != nil {
		return 0
	}
	return v
}

// NormalizePayload normalizes every block of a payload into a Series. Blocks
// without upstream metadata get it derived from their last point.
func NormalizePayload(p SeriesPayload) ([]Series, []*MalformedRecordError) {
	out := make([]Series, 0, len(p.Blocks))
	var dropped []*MalformedRecordError

	for _, b := range p.Blocks {
		points, errs := Normalize(p.Kind, b.Records)
		dropped = append(dropped, errs...)

		md := b.Metadata
		if !b.HasMetadata {
			md = deriveMetadata(points, p.Timestamp)
		}
		out = append(out, Series{
			Kind:     p.Kind,
			Dose:     b.Dose,
			Points:   points,
			Metadata: md,
			Ratio:    b.Ratio,
		})
	}
	return out, dropped
}

// deriveMetadata summarizes a daily series from its latest point, stamped
// with the message time (or now when the message carries none).
func deriveMetadata(points []CanonicalPoint, ts time.Time) SeriesMetadata {
	if ts.IsZero() {
		ts = clock.Now()
	}
	md := SeriesMetadata{LastUpdated: ts.UTC()}
	if len(points) > 0 {
		last := points[len(points)-1]
		md.ToDay = last.Incremental
		md.Total = last.Cumulative
	}
	return md
}
