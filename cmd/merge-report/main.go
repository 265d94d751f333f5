// Command merge-report loads the configured sources once and prints how the
// district records reconcile with the boundary features.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-resilience-dashboard/internal/config"
	"github.com/mr1hm/go-resilience-dashboard/internal/ingestion"
	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/logging"
	"github.com/mr1hm/go-resilience-dashboard/internal/repository"
)

func main() {
	importDB := flag.Bool("import", false, "store the records fetched from DISTRICTS_URL into DISTRICTS_DB_PATH")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	labels := locale.Default()
	if cfg.Sources.LocaleFile != "" {
		labels, err = locale.Load(cfg.Sources.LocaleFile)
		if err != nil {
			logging.Fatalf("Failed to load labels: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var districts ingestion.DistrictSource = ingestion.NewHTTPDistrictSource(cfg.Sources.DistrictsURL, cfg.Sources.FetchTimeout)
	var db *repository.SQLiteDB
	if cfg.Sources.DistrictsDBPath != "" {
		db, err = repository.NewSQLiteDB(cfg.Sources.DistrictsDBPath)
		if err != nil {
			logging.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		if !*importDB {
			districts = db
		}
	} else if *importDB {
		logging.Fatalf("-import needs DISTRICTS_DB_PATH")
	}

	if *importDB {
		if cfg.Sources.DistrictsURL == "" {
			logging.Fatalf("-import needs DISTRICTS_URL")
		}
		records, err := ingestion.LoadDistricts(ctx, districts, labels)
		if err != nil {
			logging.Fatalf("Failed to fetch districts: %v", err)
		}
		n, err := db.Upsert(ctx, records)
		if err != nil {
			logging.Fatalf("Failed to store districts: %v", err)
		}
		slog.Info("districts imported", "count", n, "path", cfg.Sources.DistrictsDBPath)
		districts = db
	}

	mgr := ingestion.NewManager(districts, ingestion.NewHTTPBoundarySource(cfg.Sources.BoundariesURL, cfg.Sources.FetchTimeout), labels, ingestion.Options{
		ProvinceField:  cfg.Province.ProvinceField,
		ProvinceName:   cfg.Province.Name,
		DistrictField:  cfg.Province.DistrictField,
		Prefix:         cfg.Province.DistrictPrefix,
		StrictMatching: cfg.Province.StrictMatching,
	}, nil, logger)

	data, err := mgr.Load(ctx)
	if err != nil {
		slog.Error("load failed", "error", err)
		os.Exit(1)
	}

	out, err := sonic.ConfigStd.MarshalIndent(data.Report, "", "  ")
	if err != nil {
		logging.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Println(string(out))
}
