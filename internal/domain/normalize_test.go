package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHanoi = "Hà Nội"

func rawRecords(t *testing.T, recs ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(recs))
	for i, r := range recs {
		out[i] = json.RawMessage(r)
	}
	return out
}

func TestNormalize_Province(t *testing.T) {
	points, dropped := Normalize(SourceProvince, rawRecords(t, `{"x":"Hà Nội","y":120,"z":4500}`))

	require.Empty(t, dropped)
	require.Len(t, points, 1)
	assert.Equal(t, CanonicalPoint{Label: testHanoi, Incremental: 120, Cumulative: 4500}, points[0])
}

func TestNormalize_National(t *testing.T) {
	points, dropped := Normalize(SourceNational, rawRecords(t,
		`{"date":"26/4","community":0,"totalCommunity":2839,"deaths":0,"recovered":3,"cases":5,"totalCase":2857}`,
		`{"date":"27/4","community":12,"totalCommunity":2851,"deaths":0,"recovered":1,"cases":14,"totalCase":2871}`,
	))

	require.Empty(t, dropped)
	assert.Equal(t, []CanonicalPoint{
		{Label: "26/4", Incremental: 0, Cumulative: 2839},
		{Label: "27/4", Incremental: 12, Cumulative: 2851},
	}, points)
}

func TestNormalize_Vaccine(t *testing.T) {
	// 2021-08-01T00:00:00+07:00
	points, dropped := Normalize(SourceVaccine, rawRecords(t,
		`{"x":1627750800000,"y":80321,"z":5439021}`,
		`{"x":"2021-08-02","y":"90000","z":"5529021"}`,
	))

	require.Empty(t, dropped)
	assert.Equal(t, []CanonicalPoint{
		{Label: "2021-08-01", Incremental: 80321, Cumulative: 5439021},
		{Label: "2021-08-02", Incremental: 90000, Cumulative: 5529021},
	}, points)
}

func TestNormalize_PreservesInputOrder(t *testing.T) {
	points, _ := Normalize(SourceProvince, rawRecords(t,
		`{"x":"C","y":1,"z":1}`,
		`{"x":"A","y":9,"z":9}`,
		`{"x":"B","y":5,"z":5}`,
	))

	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	assert.Equal(t, []string{"C", "A", "B"}, labels)
}

func TestNormalize_DropsMalformedRecords(t *testing.T) {
	tests := []struct {
		name  string
		rec   string
		field string
	}{
		{"missing incremental", `{"x":"A","z":10}`, "y"},
		{"null cumulative", `{"x":"A","y":1,"z":null}`, "z"},
		{"non-numeric string", `{"x":"A","y":"many","z":10}`, "y"},
		{"boolean value", `{"x":"A","y":1,"z":true}`, "z"},
		{"NaN string", `{"x":"A","y":"NaN","z":10}`, "y"},
		{"missing label", `{"y":1,"z":10}`, "x"},
		{"blank label", `{"x":"  ","y":1,"z":10}`, "x"},
		{"not an object", `[1,2,3]`, ""},
		{"broken JSON", `{"x":`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, dropped := Normalize(SourceProvince, rawRecords(t,
				`{"x":"ok-1","y":1,"z":2}`,
				tt.rec,
				`{"x":"ok-2","y":3,"z":4}`,
			))

			require.Len(t, points, 2)
			assert.Equal(t, "ok-1", points[0].Label)
			assert.Equal(t, "ok-2", points[1].Label)

			require.Len(t, dropped, 1)
			assert.Equal(t, 1, dropped[0].Index)
			assert.Equal(t, tt.field, dropped[0].Field)
			assert.Equal(t, SourceProvince, dropped[0].Kind)
			assert.True(t, errors.Is(dropped[0], ErrMalformedRecord))
		})
	}
}

func TestNormalize_NumericStrings(t *testing.T) {
	points, dropped := Normalize(SourceProvince, rawRecords(t, `{"x":"A","y":" 12 ","z":"4500.5"}`))

	require.Empty(t, dropped)
	assert.Equal(t, CanonicalPoint{Label: "A", Incremental: 12, Cumulative: 4500.5}, points[0])
}

func TestNormalize_Empty(t *testing.T) {
	points, dropped := Normalize(SourceNational, nil)
	assert.Empty(t, points)
	assert.NotNil(t, points)
	assert.Empty(t, dropped)
}

func TestNormalize_UnknownKind(t *testing.T) {
	points, dropped := Normalize(SourceKind("world"), rawRecords(t, `{"x":"A","y":1,"z":1}`))
	assert.Empty(t, points)
	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0], ErrUnknownSourceKind)
}

func TestNormalizeRecord(t *testing.T) {
	p, err := NormalizeRecord(SourceProvince, json.RawMessage(`{"x":"Hà Nội","y":"12","z":340}`))
	require.NoError(t, err)
	assert.Equal(t, testHanoi, p.Label)
	assert.InDelta(t, 12, p.Incremental, 0)
	assert.InDelta(t, 340, p.Cumulative, 0)

	_, err = NormalizeRecord(SourceProvince, json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestMalformedRecordError_Message(t *testing.T) {
	err := &MalformedRecordError{Kind: SourceProvince, Index: 3, Field: "y", Err: errMissingField}
	assert.Equal(t, `malformed province record 3: field "y": missing field`, err.Error())
	assert.ErrorIs(t, err, errMissingField)
}

func TestCanonicalPoint_Validate(t *testing.T) {
	tests := []struct {
		name  string
		point CanonicalPoint
		ok    bool
	}{
		{"valid", CanonicalPoint{Label: "A", Incremental: 1, Cumulative: 10}, true},
		{"all zero", CanonicalPoint{Label: "A"}, true},
		{"negative incremental", CanonicalPoint{Label: "A", Incremental: -1, Cumulative: 10}, false},
		{"cumulative below incremental", CanonicalPoint{Label: "A", Incremental: 11, Cumulative: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrPointInvariant)
		})
	}
}

func TestParseSourceKind(t *testing.T) {
	k, err := ParseSourceKind(" Province ")
	require.NoError(t, err)
	assert.Equal(t, SourceProvince, k)

	_, err = ParseSourceKind("world")
	assert.ErrorIs(t, err, ErrUnknownSourceKind)
}
