package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RefreshCentersWorkflowName is the registered workflow type name.
const RefreshCentersWorkflowName = "RefreshCentersWorkflow"

// RefreshInput is the input for RefreshCentersWorkflow.
type RefreshInput struct {
	Path string
	// Interval re-runs the refresh after this delay via continue-as-new.
	// Zero runs once.
	Interval time.Duration
}

// RefreshResult reports what one refresh did.
type RefreshResult struct {
	Imported int
	Dropped  int
}

// RefreshCentersWorkflow validates the dataset file and then replaces the
// stored centers with it. Import also invalidates the cache and announces the
// new dataset. A file that fails validation leaves the current data untouched.
func RefreshCentersWorkflow(ctx workflow.Context, input RefreshInput) (RefreshResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting centers refresh", "path", input.Path)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidDataset},
		},
	})

	var a *RefreshActivities

	var summary DatasetSummary
	if err := workflow.ExecuteActivity(ctx, a.ValidateDataset, input.Path).Get(ctx, &summary); err != nil {
		return RefreshResult{}, err
	}

	var imported int
	if err := workflow.ExecuteActivity(ctx, a.ImportCenters, input.Path).Get(ctx, &imported); err != nil {
		return RefreshResult{}, err
	}

	result := RefreshResult{Imported: imported, Dropped: summary.Dropped}
	logger.Info("centers refreshed", "imported", imported, "dropped", summary.Dropped)

	if input.Interval > 0 {
		if err := workflow.Sleep(ctx, input.Interval); err != nil {
			return result, err
		}
		return result, workflow.NewContinueAsNewError(ctx, RefreshCentersWorkflowName, input)
	}
	return result, nil
}
