package pipeline

import (
	"context"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
)

type teeLoader []BatchLoader

// Tee returns a BatchLoader that hands each batch to every loader in order,
// stopping at the first failure.
func Tee(loaders ...BatchLoader) BatchLoader {
	return teeLoader(loaders)
}

func (t teeLoader) LoadBatch(ctx context.Context, snapshots []domain.Snapshot) error {
	for _, l := range t {
		if err := l.LoadBatch(ctx, snapshots); err != nil {
			return err
		}
	}
	return nil
}
