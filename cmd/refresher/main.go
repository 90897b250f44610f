package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/youthcenters/internal/bootstrap"
	"github.com/samirrijal/youthcenters/internal/pkg/config"
	"github.com/samirrijal/youthcenters/internal/pkg/logging"
	"github.com/samirrijal/youthcenters/internal/workflows"
)

// Usage:
//
//	refresher worker              run the Temporal worker
//	refresher start <path> [every] start a refresh, repeating every duration if given
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: refresher <worker|start> [path] [interval]")
	}

	cfg, err := config.Load("youthcenters-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch os.Args[1] {
	case "worker":
		runWorker(c, cfg)
	case "start":
		startRefresh(c, cfg)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	if cfg.Data.Source != config.SourcePostgres {
		log.Fatalf("refresher needs data.source=%s, got %q", config.SourcePostgres, cfg.Data.Source)
	}

	rt, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Cache: true, Events: true})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer rt.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(workflows.RefreshCentersWorkflow, workflow.RegisterOptions{
		Name: workflows.RefreshCentersWorkflowName,
	})
	w.RegisterActivity(&workflows.RefreshActivities{
		Centers:      rt.Centers,
		MaxDropRatio: cfg.Finder.MaxDropRatio,
	})

	slog.Info("refresher worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startRefresh(c client.Client, cfg *config.Config) {
	input := workflows.RefreshInput{Path: cfg.Data.Path}
	if len(os.Args) > 2 {
		input.Path = os.Args[2]
	}
	if len(os.Args) > 3 {
		d, err := time.ParseDuration(os.Args[3])
		if err != nil {
			log.Fatalf("interval: %v", err)
		}
		input.Interval = d
	}

	run, err := c.ExecuteWorkflow(context.Background(), client.StartWorkflowOptions{
		ID:        "refresh-centers",
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.RefreshCentersWorkflowName, input)
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("refresh started", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "path", input.Path)

	if input.Interval > 0 {
		return
	}
	var result workflows.RefreshResult
	if err := run.Get(context.Background(), &result); err != nil {
		log.Fatalf("refresh failed: %v", err)
	}
	slog.Info("refresh finished", "imported", result.Imported, "dropped", result.Dropped)
}
