// Package main loads champion YAML templates and upserts them into the
// postgres champion catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/duelsim/internal/config"
	"github.com/cory-johannsen/duelsim/internal/importer"
	"github.com/cory-johannsen/duelsim/internal/observability"
	"github.com/cory-johannsen/duelsim/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "champion YAML directory (default: catalog.champions_dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	dir := *sourceDir
	if dir == "" {
		dir = cfg.Catalog.ChampionsDir
	}

	ctx := context.Background()
	pool, err := postgres.OpenCatalog(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("opening champion catalog", zap.Error(err))
	}
	defer pool.Close()

	imp := importer.New(importer.YAMLSource{}, pool.Champions(), logger)
	n, err := imp.Run(ctx, dir)
	if err != nil {
		logger.Fatal("importing champions", zap.Error(err), zap.Int("stored", n))
	}
	fmt.Printf("imported %d champion(s) from %s in %s\n", n, dir, time.Since(start).Round(time.Millisecond))
}
