package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/store"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type seriesListResponse struct {
	Series []string `json:"series"`
}

type rankingResponse struct {
	Series   string                  `json:"series"`
	Metric   domain.Metric           `json:"metric"`
	Top      int                     `json:"top"`
	Points   []domain.CanonicalPoint `json:"points"`
	Ticks    []domain.AxisTick       `json:"ticks"`
	Metadata domain.SeriesMetadata   `json:"metadata"`
}

type pointsResponse struct {
	Series   string                  `json:"series"`
	Range    domain.Range            `json:"range"`
	Metric   domain.Metric           `json:"metric"`
	Points   []domain.CanonicalPoint `json:"points"`
	Ticks    []domain.AxisTick       `json:"ticks"`
	Metadata domain.SeriesMetadata   `json:"metadata"`
	Ratio    float64                 `json:"ratio,omitempty"`
}

type formatResponse struct {
	Value     string `json:"value"`
	Precision int    `json:"precision"`
	Formatted string `json:"formatted"`
}

func (s *Server) handleListSeries(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, seriesListResponse{Series: s.series.Keys()})
}

// handleRanking serves the top-N of a series by metric (default cumulative).
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	sr, ok := s.lookup(w, r)
	if !ok {
		return
	}
	metric, err := parseMetricParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	top, err := intParam(r, "top", s.opts.TopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	precision, err := intParam(r, "precision", s.opts.Precision)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points := domain.Rank(sr.Points, metric, top)
	sharedobs.WriteJSON(w, http.StatusOK, rankingResponse{
		Series:   sr.Key(),
		Metric:   metric,
		Top:      top,
		Points:   points,
		Ticks:    domain.AxisTicks(points, metric, precision),
		Metadata: sr.Metadata,
	})
}

// handleTable serves the paginated ranking table. Clients echo back the
// visible count they were given; expand=true advances it one step.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sr, ok := s.lookup(w, r)
	if !ok {
		return
	}
	metric, err := parseMetricParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pager := domain.NewPaginator(len(sr.Points), s.opts.Paginator)
	if r.URL.Query().Has("visible") {
		visible, err := intParam(r, "visible", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pager = domain.RestorePaginator(len(sr.Points), visible, s.opts.Paginator)
	}
	if expand := r.URL.Query().Get("expand"); expand != "" {
		on, err := strconv.ParseBool(expand)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid expand %q", expand))
			return
		}
		if on {
			pager.Expand()
		}
	}

	sharedobs.WriteJSON(w, http.StatusOK, domain.BuildTableView(sr, metric, pager, s.now()))
}

// handlePoints serves a daily series limited to a trailing range.
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	sr, ok := s.lookup(w, r)
	if !ok {
		return
	}
	rng, err := domain.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metric, err := parseMetricParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points := domain.FilterRange(sr.Points, rng)
	sharedobs.WriteJSON(w, http.StatusOK, pointsResponse{
		Series:   sr.Key(),
		Range:    rng,
		Metric:   metric,
		Points:   points,
		Ticks:    domain.AxisTicks(points, metric, s.opts.Precision),
		Metadata: sr.Metadata,
		Ratio:    sr.Ratio,
	})
}

// handleFormat exposes FormatMagnitude. NaN and Inf are accepted so clients
// can check the placeholder.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid value %q", raw))
		return
	}
	precision, err := intParam(r, "precision", s.opts.Precision)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, formatResponse{
		Value:     raw,
		Precision: precision,
		Formatted: domain.FormatMagnitude(value, precision),
	})
}

// lookup resolves the {key} path value, writing 404 when the series is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.Series, bool) {
	key := r.PathValue("key")
	sr, err := s.series.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("series %q not found", key))
		return domain.Series{}, false
	}
	if err != nil {
		s.logger.Error("series lookup failed", "series", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return domain.Series{}, false
	}
	return sr, true
}

func (s *Server) now() time.Time {
	return s.clock.Now().UTC()
}

func parseMetricParam(r *http.Request) (domain.Metric, error) {
	m := r.URL.Query().Get("metric")
	if m == "" {
		return domain.MetricCumulative, nil
	}
	return domain.ParseMetric(m)
}

// intParam reads a non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, s)
	}
	return n, nil
}
