package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/samirrijal/youthcenters/internal/bootstrap"
	"github.com/samirrijal/youthcenters/internal/pkg/config"
	"github.com/samirrijal/youthcenters/internal/pkg/logging"
)

// Loads a centers CSV (local path or http(s) URL) into Postgres.
// Usage: ingestor [path|url]
func main() {
	cfg, err := config.Load("youthcenters-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	source := cfg.Data.Path
	if len(os.Args) > 1 {
		source = os.Args[1]
	}

	// The bundled file is the input here, the database the destination.
	cfg.Data.Source = config.SourcePostgres

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rt, err := bootstrap.New(ctx, cfg, bootstrap.Options{Cache: true, Events: true})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer rt.Close()

	r, err := open(ctx, source)
	if err != nil {
		log.Fatalf("open %s: %v", source, err)
	}
	defer r.Close()

	start := time.Now()
	n, err := rt.Centers.Import(ctx, r, "ingestor:"+source)
	if err != nil {
		log.Fatalf("import: %v", err)
	}

	slog.Info("ingestion complete", "source", source, "centers", n, "took", time.Since(start).String())
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, source)
	}
	return resp.Body, nil
}
