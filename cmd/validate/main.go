// Command validate performs end-to-end integrity checks on the mock data
// fixtures: collector CSVs, generated JSON payloads, and the views the
// pipeline derives from them. It verifies record counts, normalization
// invariants, ranking order, and view shape.
//
// Usage:
//
//	go run ./cmd/validate -csv-dir data/mock -json-dir data/mock
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	"github.com/jonboulle/clockwork"
)

// source pairs a collector CSV with its generated payload and the CSV
// columns holding the label, incremental, and cumulative values.
type source struct {
	kind     domain.SourceKind
	csvFile  string
	jsonFile string
	labelCol string
	columns  map[string][2]string // series key -> {incremental, cumulative}
}

var sources = []source{
	{
		kind: domain.SourceProvince, csvFile: "province_cases.csv", jsonFile: "province.json",
		labelCol: "Province",
		columns:  map[string][2]string{"province": {"Today", "Total"}},
	},
	{
		kind: domain.SourceNational, csvFile: "national_days.csv", jsonFile: "national.json",
		labelCol: "Date",
		columns:  map[string][2]string{"national": {"Community", "TotalCommunity"}},
	},
	{
		kind: domain.SourceVaccine, csvFile: "vaccine_doses.csv", jsonFile: "vaccine.json",
		labelCol: "Date",
		columns: map[string][2]string{
			"vaccine.first":  {"First", "FirstTotal"},
			"vaccine.second": {"Second", "SecondTotal"},
		},
	},
}

var viewOptions = domain.ViewOptions{TopN: 4, Precision: 1}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// loaded holds one source's CSV rows and normalized payload.
type loaded struct {
	source
	rows    []csvRow
	series  []domain.Series
	dropped []*domain.MalformedRecordError
}

func main() {
	csvDir := flag.String("csv-dir", "data/mock", "directory containing the collector CSV exports")
	jsonDir := flag.String("json-dir", "data/mock", "directory containing the generated JSON payloads")
	flag.Parse()

	if code := run(*csvDir, *jsonDir); code != 0 {
		os.Exit(code)
	}
}

func run(csvDir, jsonDir string) int {
	// Fixed clock matching genmock so derived metadata is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2021, time.August, 1, 11, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Dashboard Fixture Validation ===")
	fmt.Println()

	data := make([]loaded, 0, len(sources))
	for _, s := range sources {
		l, err := load(s, csvDir, jsonDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", s.kind, err)
			return 1
		}
		data = append(data, l)
	}

	phases := []*phase{
		validateSourceParity(data),
		validateNormalization(data),
		validateRanking(data),
		validateViews(data),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	for _, l := range data {
		points := 0
		for _, s := range l.series {
			points += len(s.Points)
		}
		fmt.Printf("%s: %d CSV rows, %d series, %d points, %d dropped\n",
			l.kind, len(l.rows), len(l.series), points, len(l.dropped))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func load(s source, csvDir, jsonDir string) (loaded, error) {
	rows, err := loadCSV(filepath.Join(csvDir, s.csvFile))
	if err != nil {
		return loaded{}, err
	}
	value, err := os.ReadFile(filepath.Join(jsonDir, s.jsonFile))
	if err != nil {
		return loaded{}, err
	}
	payload, err := domain.ParseSeriesPayload(domain.RawEvent{
		Value:   value,
		Headers: map[string]string{domain.SourceKindHeader: string(s.kind)},
	})
	if err != nil {
		return loaded{}, err
	}
	series, dropped := domain.NormalizePayload(payload)
	return loaded{source: s, rows: rows, series: series, dropped: dropped}, nil
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

// ── Phase 1: Source Parity ──
// Validates that every CSV row survives into the payload with the same values.

func validateSourceParity(data []loaded) *phase {
	p := &phase{name: "Phase 1: Source Parity (CSV vs JSON)"}

	for _, l := range data {
		if len(l.series) != len(l.columns) {
			p.errorf("%s: expected %d series, got %d", l.kind, len(l.columns), len(l.series))
		}
		for _, s := range l.series {
			cols, ok := l.columns[s.Key()]
			if !ok {
				p.errorf("%s: unexpected series %q", l.kind, s.Key())
				continue
			}
			checkSeriesAgainstCSV(p, l, s, cols)
		}
	}
	return p
}

func checkSeriesAgainstCSV(p *phase, l loaded, s domain.Series, cols [2]string) {
	if len(s.Points) != len(l.rows) {
		p.errorf("%s: %d CSV rows, %d points", s.Key(), len(l.rows), len(s.Points))
		return
	}
	for i, row := range l.rows {
		pt := s.Points[i]
		if want := row.fields[l.labelCol]; want != pt.Label {
			p.errorf("%s line %d: label: CSV=%q, JSON=%q", s.Key(), row.lineNum, want, pt.Label)
		}
		checkValue(p, s.Key(), row, cols[0], pt.Incremental)
		checkValue(p, s.Key(), row, cols[1], pt.Cumulative)
	}
}

func checkValue(p *phase, key string, row csvRow, col string, got float64) {
	want, err := strconv.ParseFloat(row.fields[col], 64)
	if err != nil {
		p.errorf("%s line %d: %s not numeric: %q", key, row.lineNum, col, row.fields[col])
		return
	}
	if !floatEq(want, got) {
		p.errorf("%s line %d: %s: CSV=%g, JSON=%g", key, row.lineNum, col, want, got)
	}
}

// ── Phase 2: Normalization ──
// Validates point invariants and series-level consistency.

func validateNormalization(data []loaded) *phase {
	p := &phase{name: "Phase 2: Normalization (invariants)"}

	for _, l := range data {
		for _, d := range l.dropped {
			p.errorf("%s: %v", l.kind, d)
		}
		for _, s := range l.series {
			for i, pt := range s.Points {
				if err := pt.Validate(); err != nil {
					p.errorf("%s point %d: %v", s.Key(), i, err)
				}
				if s.Kind.Daily() && i > 0 && pt.Cumulative < s.Points[i-1].Cumulative {
					p.errorf("%s point %d (%s): cumulative decreased from %g to %g",
						s.Key(), i, pt.Label, s.Points[i-1].Cumulative, pt.Cumulative)
				}
			}
			checkMetadata(p, s)
		}
	}
	return p
}

func checkMetadata(p *phase, s domain.Series) {
	if s.Metadata.LastUpdated.IsZero() {
		p.errorf("%s: last_updated is zero", s.Key())
	}
	if !s.Kind.Daily() || len(s.Points) == 0 {
		return
	}
	last := s.Points[len(s.Points)-1]
	if !floatEq(s.Metadata.Total, last.Cumulative) {
		p.errorf("%s: metadata total %g, last cumulative %g", s.Key(), s.Metadata.Total, last.Cumulative)
	}
}

// ── Phase 3: Ranking ──
// Validates descending order, stability, length, and idempotence.

func validateRanking(data []loaded) *phase {
	p := &phase{name: "Phase 3: Ranking (order + stability)"}

	for _, l := range data {
		for _, s := range l.series {
			for _, m := range domain.Metrics {
				checkRanking(p, s, m)
			}
		}
	}
	return p
}

func checkRanking(p *phase, s domain.Series, m domain.Metric) {
	name := s.Key() + "/" + string(m)
	position := make(map[string]int, len(s.Points))
	for i, pt := range s.Points {
		position[pt.Label] = i
	}

	for _, n := range []int{0, 1, viewOptions.TopN, len(s.Points), len(s.Points) + 3} {
		ranked := domain.Rank(s.Points, m, n)
		if want := min(n, len(s.Points)); len(ranked) != want {
			p.errorf("%s top %d: length %d, want %d", name, n, len(ranked), want)
		}
		for i := 1; i < len(ranked); i++ {
			prev, cur := ranked[i-1].Value(m), ranked[i].Value(m)
			if prev < cur {
				p.errorf("%s top %d: %q (%g) ranked above %q (%g)", name, n, ranked[i-1].Label, prev, ranked[i].Label, cur)
			}
			if prev == cur && position[ranked[i-1].Label] > position[ranked[i].Label] {
				p.errorf("%s top %d: tie %q/%q out of input order", name, n, ranked[i-1].Label, ranked[i].Label)
			}
		}
		again := domain.Rank(ranked, m, n)
		for i := range again {
			if again[i] != ranked[i] {
				p.errorf("%s top %d: ranking not idempotent at %d", name, n, i)
				break
			}
		}
	}
}

// ── Phase 4: Views ──
// Validates the views derived from each series.

func validateViews(data []loaded) *phase {
	p := &phase{name: "Phase 4: Views (shape + serialization)"}

	seen := map[string]bool{}
	for _, l := range data {
		for _, s := range l.series {
			for _, v := range domain.BuildViews(s, viewOptions) {
				if seen[v.ID] {
					p.errorf("duplicate view ID %q", v.ID)
				}
				seen[v.ID] = true
				checkView(p, s, v)
			}
		}
	}
	return p
}

func checkView(p *phase, s domain.Series, v domain.View) {
	switch v.Type {
	case domain.ViewRanking:
		if want := min(viewOptions.TopN, len(s.Points)); len(v.Points) != want {
			p.errorf("%s: %d points, want %d", v.ID, len(v.Points), want)
		}
	case domain.ViewTimeSeries:
		if days := v.Range.Days(); days > 0 && len(v.Points) > days {
			p.errorf("%s: %d points exceed %s range", v.ID, len(v.Points), v.Range)
		}
	case domain.ViewTable:
		if v.Table == nil {
			p.errorf("%s: missing table state", v.ID)
			return
		}
		if want := min(v.Table.VisibleCount, len(s.Points)); len(v.Rows) != want {
			p.errorf("%s: %d rows, want %d", v.ID, len(v.Rows), want)
		}
	default:
		p.errorf("%s: unknown view type %q", v.ID, v.Type)
	}

	if v.Type != domain.ViewTable && len(v.Ticks) == 0 {
		p.errorf("%s: no axis ticks", v.ID)
	}

	out, err := domain.SerializeView(v)
	if err != nil {
		p.errorf("%s: %v", v.ID, err)
		return
	}
	if string(out.Key) != v.ID {
		p.errorf("%s: message key %q", v.ID, out.Key)
	}
	if out.Headers[domain.SourceKindHeader] != string(s.Kind) {
		p.errorf("%s: source_kind header %q", v.ID, out.Headers[domain.SourceKindHeader])
	}
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
