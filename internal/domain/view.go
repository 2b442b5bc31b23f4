package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ViewType names the presentation shape a view feeds.
type ViewType string

const (
	// ViewRanking is a top-N bar chart of one metric.
	ViewRanking ViewType = "ranking"
	// ViewTimeSeries is a chronological chart of one metric over a range.
	ViewTimeSeries ViewType = "timeseries"
	// ViewTable is a ranked table with a show-more toggle.
	ViewTable ViewType = "table"
)

// axisTickCount is the number of y-axis ticks, zero included.
const axisTickCount = 5

// ViewOptions controls how views are built from a series.
type ViewOptions struct {
	TopN      int
	Precision int
	Paginator PaginatorConfig
}

// AxisTick is one labelled y-axis value.
type AxisTick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// TableRow is one formatted table line.
type TableRow struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	Today string `json:"today"`
	Total string `json:"total"`
}

// TableState is the table's initial show-more state.
type TableState struct {
	VisibleCount int    `json:"visible_count"`
	Expandable   bool   `json:"expandable"`
	ToggleLabel  string `json:"toggle_label"`
}

// View is one derived dataset ready for a chart or table.
type View struct {
	ID       string           `json:"id"`
	Series   string           `json:"series"`
	Kind     SourceKind       `json:"kind"`
	Type     ViewType         `json:"view"`
	Metric   Metric           `json:"metric"`
	Range    Range            `json:"range,omitempty"`
	Points   []CanonicalPoint `json:"points"`
	Ticks    []AxisTick       `json:"ticks,omitempty"`
	Rows     []TableRow       `json:"rows,omitempty"`
	Table    *TableState      `json:"table,omitempty"`
	Metadata SeriesMetadata   `json:"metadata"`
	Ratio    float64          `json:"ratio,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// BuildViews derives every view for a series. Snapshot sources (provinces)
// get a top-N ranking per metric plus a table; daily sources get a time
// series per metric and range.
func BuildViews(s Series, opts ViewOptions) []View {
	now := clock.Now().UTC()
	var views []View

	if s.Kind.Daily() {
		for _, m := range Metrics {
			for _, r := range Ranges {
				points := FilterRange(s.Points, r)
				views = append(views, s.view(ViewTimeSeries, m, r, points, opts.Precision, now))
			}
		}
		return views
	}

	for _, m := range Metrics {
		views = append(views, s.view(ViewRanking, m, "", Rank(s.Points, m, opts.TopN), opts.Precision, now))
	}
	views = append(views, BuildTableView(s, MetricCumulative, NewPaginator(len(s.Points), opts.Paginator), now))
	return views
}

func (s Series) view(typ ViewType, m Metric, r Range, points []CanonicalPoint, precision int, now time.Time) View {
	return View{
		ID:          ViewID(s.Key(), typ, m, r),
		Series:      s.Key(),
		Kind:        s.Kind,
		Type:        typ,
		Metric:      m,
		Range:       r,
		Points:      points,
		Ticks:       AxisTicks(points, m, precision),
		Metadata:    s.Metadata,
		Ratio:       s.Ratio,
		GeneratedAt: now,
	}
}

// BuildTableView ranks the whole series by metric and formats the rows
// visible through p.
func BuildTableView(s Series, m Metric, p *Paginator, now time.Time) View {
	ranked := Rank(s.Points, m, len(s.Points))
	visible := p.Window(ranked)

	rows := make([]TableRow, len(visible))
	for i, pt := range visible {
		rows[i] = TableRow{
			Rank:  i + 1,
			Label: pt.Label,
			Today: FormatDelta(pt.Incremental),
			Total: FormatCount(pt.Cumulative),
		}
	}

	return View{
		ID:     ViewID(s.Key(), ViewTable, m, ""),
		Series: s.Key(),
		Kind:   s.Kind,
		Type:   ViewTable,
		Metric: m,
		Points: ranked,
		Rows:   rows,
		Table: &TableState{
			VisibleCount: p.VisibleCount(),
			Expandable:   p.IsExpandable(),
			ToggleLabel:  p.ToggleLabel(),
		},
		Metadata:    s.Metadata,
		Ratio:       s.Ratio,
		GeneratedAt: now,
	}
}

// ViewID builds the stable identifier used as the sink message key,
// e.g. "province:ranking:cumulative" or "national:timeseries:incremental:week".
func ViewID(series string, typ ViewType, m Metric, r Range) string {
	parts := []string{series, string(typ), string(m)}
	if r != "" {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ":")
}

// AxisTicks spaces axisTickCount ticks evenly from zero to the largest value
// of metric among points, labelled with FormatMagnitude. An empty or all-zero
// series gets a single zero tick.
func AxisTicks(points []CanonicalPoint, m Metric, precision int) []AxisTick {
	top := 0.0
	for _, p := range points {
		top = max(top, p.Value(m))
	}
	if top <= 0 {
		return []AxisTick{{Value: 0, Label: FormatMagnitude(0, precision)}}
	}

	// Divide before multiplying: top may be close to MaxFloat64.
	step := top / float64(axisTickCount-1)
	ticks := make([]AxisTick, axisTickCount)
	for i := range ticks {
		v := step * float64(i)
		if i == axisTickCount-1 {
			v = top
		}
		ticks[i] = AxisTick{Value: v, Label: FormatMagnitude(v, precision)}
	}
	return ticks
}

// SerializeView marshals a view into a sink message keyed by its ID.
func SerializeView(v View) (OutputEvent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize view: %w", err)
	}
	return OutputEvent{
		Key:   []byte(v.ID),
		Value: data,
		Headers: map[string]string{
			SourceKindHeader: string(v.Kind),
			"view":           string(v.Type),
			"metric":         string(v.Metric),
			"generated_at":   v.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}
