package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedRecord matches every *MalformedRecordError via errors.Is.
var ErrMalformedRecord = errors.New("malformed record")

var (
	errMissingField = errors.New("missing field")
	errNotNumeric   = errors.New("not numeric")
	errNotObject    = errors.New("record is not a JSON object")
)

// vietnamTime is fixed at UTC+7; Vietnam has no daylight saving.
var vietnamTime = time.FixedZone("ICT", 7*60*60)

// MalformedRecordError reports a record that lacks a required field or whose
// field is not numeric. Callers choose whether to drop the record or abort
// the series.
type MalformedRecordError struct {
	Kind  SourceKind
	Index int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed %s record %d: %v", e.Kind, e.Index, e.Err)
	}
	return fmt.Sprintf("malformed %s record %d: field %q: %v", e.Kind, e.Index, e.Field, e.Err)
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Normalize converts raw records of one source kind into canonical points,
// preserving input order. Malformed records are dropped and returned so the
// rest of the series survives a partial upstream outage; a caller that would
// rather abort can treat any returned error as fatal.
func Normalize(kind SourceKind, records []json.RawMessage) ([]CanonicalPoint, []*MalformedRecordError) {
	points := make([]CanonicalPoint, 0, len(records))
	var dropped []*MalformedRecordError

	for i, rec := range records {
		p, err := NormalizeRecord(kind, rec)
		if err != nil {
			var mre *MalformedRecordError
			if !errors.As(err, &mre) {
				mre = &MalformedRecordError{Kind: kind, Err: err}
			}
			mre.Index = i
			dropped = append(dropped, mre)
			continue
		}
		points = append(points, p)
	}
	return points, dropped
}

// NormalizeRecord maps a single raw record to a canonical point. Each source
// kind has its own field mapping; failures are *MalformedRecordError.
func NormalizeRecord(kind SourceKind, rec json.RawMessage) (CanonicalPoint, error) {
	fields, err := decodeFields(rec)
	if err != nil {
		return CanonicalPoint{}, &MalformedRecordError{Kind: kind, Err: err}
	}

	switch kind {
	case SourceProvince:
		return normalizeProvince(fields)
	case SourceNational:
		return normalizeNational(fields)
	case SourceVaccine:
		return normalizeVaccine(fields)
	default:
		return CanonicalPoint{}, &MalformedRecordError{Kind: kind, Err: ErrUnknownSourceKind}
	}
}

// normalizeProvince maps {x: name, y: today's new cases, z: province total}.
func normalizeProvince(f recordFields) (CanonicalPoint, error) {
	return f.point(SourceProvince, "x", "y", "z", labelText)
}

// normalizeNational maps one day: {date, community, totalCommunity, ...}.
func normalizeNational(f recordFields) (CanonicalPoint, error) {
	return f.point(SourceNational, "date", "community", "totalCommunity", labelText)
}

// normalizeVaccine maps one dose record {x: period start (ms), y: doses, z: cumulative}.
func normalizeVaccine(f recordFields) (CanonicalPoint, error) {
	return f.point(SourceVaccine, "x", "y", "z", labelDate)
}

type recordFields map[string]json.RawMessage

func decodeFields(rec json.RawMessage) (recordFields, error) {
	rec = bytes.TrimSpace(rec)
	if len(rec) == 0 || rec[0] != '{' {
		return nil, errNotObject
	}
	var f recordFields
	if err := json.Unmarshal(rec, &f); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return f, nil
}

type labelFunc func(raw json.RawMessage) (string, error)

func (f recordFields) point(kind SourceKind, labelKey, incKey, cumKey string, label labelFunc) (CanonicalPoint, error) {
	name, err := label(f[labelKey])
	if err != nil {
		return CanonicalPoint{}, &MalformedRecordError{Kind: kind, Field: labelKey, Err: err}
	}
	inc, err := parseNumber(f[incKey])
	if err != nil {
		return CanonicalPoint{}, &MalformedRecordError{Kind: kind, Field: incKey, Err: err}
	}
	cum, err := parseNumber(f[cumKey])
	if err != nil {
		return CanonicalPoint{}, &MalformedRecordError{Kind: kind, Field: cumKey, Err: err}
	}
	return CanonicalPoint{Label: name, Incremental: inc, Cumulative: cum}, nil
}

// isNull reports whether a raw field is absent or JSON null.
func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// parseNumber accepts a JSON number or a string holding a finite number.
func parseNumber(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, errMissingField
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: %s", errNotNumeric, raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, s)
	}
	return v, nil
}

// labelText accepts a non-empty string, or a bare number kept verbatim.
func labelText(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", errMissingField
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if errNum := json.Unmarshal(raw, &n); errNum != nil {
			return "", fmt.Errorf("label must be a string: %s", raw)
		}
		return n.String(), nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errMissingField
	}
	return s, nil
}

// labelDate renders a Unix-millisecond timestamp as a Vietnam calendar date.
// String values are taken as already formatted labels.
func labelDate(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", errMissingField
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return labelText(raw)
	}
	return time.UnixMilli(int64(ms)).In(vietnamTime).Format(time.DateOnly), nil
}
