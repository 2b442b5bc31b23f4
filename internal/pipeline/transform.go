package pipeline

import (
	"context"
	"log/slog"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/observability"
)

// DashboardTransformer implements Transformer by normalizing a series payload
// and deriving its dashboard views.
type DashboardTransformer struct {
	opts    domain.ViewOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a DashboardTransformer that builds views with opts.
func NewTransformer(opts domain.ViewOptions, logger *slog.Logger, metrics *observability.Metrics) *DashboardTransformer {
	return &DashboardTransformer{
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Transform fails only when the payload itself cannot be decoded. Malformed
// records inside it are dropped, logged, and counted.
func (t *DashboardTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Snapshot, error) {
	payload, err := domain.ParseSeriesPayload(raw)
	if err != nil {
		return domain.Snapshot{}, err
	}

	series, dropped := domain.NormalizePayload(payload)
	for _, d := range dropped {
		t.logger.Warn("dropping malformed record",
			"kind", d.Kind,
			"index", d.Index,
			"field", d.Field,
			"error", d.Err,
			"offset", raw.Offset,
		)
		t.metrics.MalformedRecords.WithLabelValues(string(d.Kind)).Inc()
	}

	snap := domain.Snapshot{Series: series, Dropped: dropped}
	for _, s := range series {
		snap.Views = append(snap.Views, domain.BuildViews(s, t.opts)...)
	}

	t.logger.Debug("series normalized",
		"kind", payload.Kind,
		"series", len(series),
		"views", len(snap.Views),
		"dropped", len(dropped),
	)
	return snap, nil
}
