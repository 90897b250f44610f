package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/youthcenters/internal/core/finder"
	"github.com/samirrijal/youthcenters/internal/core/usecases"
)

// ErrTypeInvalidDataset marks a dataset that retrying cannot fix.
const ErrTypeInvalidDataset = "InvalidDataset"

// DatasetSummary describes a parsed dataset file.
type DatasetSummary struct {
	Centers int
	Dropped int
}

// RefreshActivities holds the activity implementations for RefreshCentersWorkflow.
type RefreshActivities struct {
	Centers *usecases.CenterService
	// MaxDropRatio rejects a file when more than this share of its lines is
	// malformed. Zero disables the check. Import applies the same rules.
	MaxDropRatio float64
}

// ValidateDataset parses the file without storing anything.
func (a *RefreshActivities) ValidateDataset(ctx context.Context, path string) (DatasetSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return DatasetSummary{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	res, err := finder.ReadRecords(f)
	if err != nil {
		return DatasetSummary{}, fmt.Errorf("read dataset: %w", err)
	}

	summary := DatasetSummary{Centers: len(res.Centers), Dropped: res.Dropped}
	if err := res.Check(a.MaxDropRatio); err != nil {
		return summary, temporal.NewNonRetryableApplicationError(
			"dataset "+path+" rejected", ErrTypeInvalidDataset, err)
	}

	slog.InfoContext(ctx, "dataset validated", "path", path, "centers", summary.Centers, "dropped", summary.Dropped)
	return summary, nil
}

// ImportCenters replaces the stored centers with the file's records.
func (a *RefreshActivities) ImportCenters(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	n, err := a.Centers.Import(ctx, f, "refresh:"+path)
	if errors.Is(err, usecases.ErrInvalidDataset) {
		// The file changed after validation; retrying reads the same data.
		return 0, temporal.NewNonRetryableApplicationError("dataset "+path+" rejected", ErrTypeInvalidDataset, err)
	}
	return n, err
}
