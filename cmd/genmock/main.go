// Command genmock reads the collector's CSV exports and generates the raw
// series payload fixtures used by the pipeline and integration tests. Each
// generated payload is run through the domain package so the printed stats
// match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -csv-dir data/mock -out-dir data/mock
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	"github.com/jonboulle/clockwork"
)

// population is the 2019 census figure used for vaccine coverage ratios.
const population = 96208984

var (
	lastUpdated = time.Date(2021, time.August, 1, 11, 0, 0, 0, time.UTC)
	vietnamTime = time.FixedZone("ICT", 7*60*60)
)

type caseRecord struct {
	X string `json:"x"`
	Y int64  `json:"y"`
	Z int64  `json:"z"`
}

type provinceFixture struct {
	Kind        string       `json:"kind"`
	LastUpdated int64        `json:"lastUpdated"`
	ToDay       int64        `json:"toDay"`
	Total       int64        `json:"total"`
	Cases       []caseRecord `json:"cases"`
}

type dayRecord struct {
	Date           string `json:"date"`
	Community      int64  `json:"community"`
	TotalCommunity int64  `json:"totalCommunity"`
}

type nationalFixture struct {
	Kind string      `json:"kind"`
	Days []dayRecord `json:"days"`
}

type doseRecord struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

type doseFixture struct {
	LastUpdated int64        `json:"lastUpdated"`
	ToDay       int64        `json:"toDay"`
	Total       int64        `json:"total"`
	Datas       []doseRecord `json:"datas"`
}

type vaccineFixture struct {
	Kind        string      `json:"kind"`
	FirstRatio  float64     `json:"firstRatio"`
	SecondRatio float64     `json:"secondRatio"`
	First       doseFixture `json:"first"`
	Second      doseFixture `json:"second"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvDir := flag.String("csv-dir", "data/mock", "directory containing the collector CSV exports")
	outDir := flag.String("out-dir", "data/mock", "output directory for the JSON payload fixtures")
	flag.Parse()

	// Fixed clock so derived metadata is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(lastUpdated))
	defer domain.SetClock(nil)

	province, err := buildProvince(filepath.Join(*csvDir, "province_cases.csv"))
	if err != nil {
		return fmt.Errorf("province: %w", err)
	}
	national, err := buildNational(filepath.Join(*csvDir, "national_days.csv"))
	if err != nil {
		return fmt.Errorf("national: %w", err)
	}
	vaccine, err := buildVaccine(filepath.Join(*csvDir, "vaccine_doses.csv"))
	if err != nil {
		return fmt.Errorf("vaccine: %w", err)
	}

	fixtures := []struct {
		kind domain.SourceKind
		file string
		v    any
	}{
		{domain.SourceProvince, "province.json", province},
		{domain.SourceNational, "national.json", national},
		{domain.SourceVaccine, "vaccine.json", vaccine},
	}

	for _, f := range fixtures {
		path := filepath.Join(*outDir, f.file)
		data, err := writeJSON(path, f.v)
		if err != nil {
			return fmt.Errorf("writing %s: %w", f.file, err)
		}
		log.Printf("wrote %s fixture: %s", f.kind, path)

		if err := printStats(f.kind, data); err != nil {
			return fmt.Errorf("%s stats: %w", f.kind, err)
		}
	}
	return nil
}

func buildProvince(path string) (provinceFixture, error) {
	rows, err := readCSV(path)
	if err != nil {
		return provinceFixture{}, err
	}

	fx := provinceFixture{Kind: string(domain.SourceProvince), LastUpdated: lastUpdated.UnixMilli()}
	for _, row := range rows {
		today, total, err := parseCounts(row, "Today", "Total")
		if err != nil {
			return provinceFixture{}, err
		}
		fx.Cases = append(fx.Cases, caseRecord{X: row.get("Province"), Y: today, Z: total})
		fx.ToDay += today
		fx.Total += total
	}
	return fx, nil
}

func buildNational(path string) (nationalFixture, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nationalFixture{}, err
	}

	fx := nationalFixture{Kind: string(domain.SourceNational)}
	for _, row := range rows {
		community, total, err := parseCounts(row, "Community", "TotalCommunity")
		if err != nil {
			return nationalFixture{}, err
		}
		fx.Days = append(fx.Days, dayRecord{Date: row.get("Date"), Community: community, TotalCommunity: total})
	}
	return fx, nil
}

func buildVaccine(path string) (vaccineFixture, error) {
	rows, err := readCSV(path)
	if err != nil {
		return vaccineFixture{}, err
	}

	fx := vaccineFixture{Kind: string(domain.SourceVaccine)}
	for _, row := range rows {
		day, err := time.ParseInLocation(time.DateOnly, row.get("Date"), vietnamTime)
		if err != nil {
			return vaccineFixture{}, fmt.Errorf("line %d: %w", row.line, err)
		}
		first, firstTotal, err := parseCounts(row, "First", "FirstTotal")
		if err != nil {
			return vaccineFixture{}, err
		}
		second, secondTotal, err := parseCounts(row, "Second", "SecondTotal")
		if err != nil {
			return vaccineFixture{}, err
		}
		ms := day.UnixMilli()
		fx.First.Datas = append(fx.First.Datas, doseRecord{X: ms, Y: first, Z: firstTotal})
		fx.Second.Datas = append(fx.Second.Datas, doseRecord{X: ms, Y: second, Z: secondTotal})
	}

	for _, d := range []*doseFixture{&fx.First, &fx.Second} {
		d.LastUpdated = lastUpdated.UnixMilli()
		if n := len(d.Datas); n > 0 {
			d.ToDay = d.Datas[n-1].Y
			d.Total = d.Datas[n-1].Z
		}
	}
	fx.FirstRatio = coverage(fx.First.Total)
	fx.SecondRatio = coverage(fx.Second.Total)
	return fx, nil
}

func coverage(total int64) float64 {
	return math.Round(float64(total)/population*1e4) / 1e4
}

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	line   int
	fields map[string]string
}

func (r csvRow) get(col string) string {
	return r.fields[col]
}

func readCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := all[0]
	rows := make([]csvRow, 0, len(all)-1)
	for i, rec := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) {
				fields[h] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, csvRow{line: i + 2, fields: fields})
	}
	return rows, nil
}

func parseCounts(row csvRow, incCol, cumCol string) (int64, int64, error) {
	inc, err := strconv.ParseInt(row.get(incCol), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: %s: %w", row.line, incCol, err)
	}
	cum, err := strconv.ParseInt(row.get(cumCol), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: %s: %w", row.line, cumCol, err)
	}
	return inc, cum, nil
}

func writeJSON(path string, v any) ([]byte, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	return data, os.WriteFile(path, data, 0o600)
}

// printStats normalizes a generated payload and prints the numbers the test
// suites assert on.
func printStats(kind domain.SourceKind, data []byte) error {
	payload, err := domain.ParseSeriesPayload(domain.RawEvent{
		Value:     data,
		Headers:   map[string]string{domain.SourceKindHeader: string(kind)},
		Timestamp: lastUpdated,
	})
	if err != nil {
		return err
	}
	series, dropped := domain.NormalizePayload(payload)

	fmt.Printf("\n=== %s ===\n", kind)
	fmt.Printf("Dropped records: %d\n", len(dropped))
	for _, s := range series {
		fmt.Printf("%s: %d points, today=%s total=%s\n",
			s.Key(), len(s.Points), domain.FormatCount(s.Metadata.ToDay), domain.FormatCount(s.Metadata.Total))
		if s.Ratio > 0 {
			fmt.Printf("  coverage ratio: %g\n", s.Ratio)
		}

		views := domain.BuildViews(s, domain.ViewOptions{TopN: 4, Precision: 1})
		fmt.Printf("  views: %d\n", len(views))
		for _, m := range domain.Metrics {
			top := domain.Rank(s.Points, m, 4)
			fmt.Printf("  top 4 by %s:", m)
			for _, p := range top {
				fmt.Printf(" %s=%s", p.Label, domain.FormatMagnitude(p.Value(m), 1))
			}
			fmt.Println()
		}
	}
	return nil
}
