// Command marketarea runs one full generation and reconciliation pass
// over a stored market-area document and reports what would be drawn.
// It exists for operators debugging geometry problems outside the map
// widget.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcgis/marketarea/internal/config"
	"github.com/tcgis/marketarea/internal/database"
	"github.com/tcgis/marketarea/internal/drivetime"
	"github.com/tcgis/marketarea/internal/engine"
	"github.com/tcgis/marketarea/internal/generator"
	"github.com/tcgis/marketarea/internal/geo"
	"github.com/tcgis/marketarea/internal/graphics"
	"github.com/tcgis/marketarea/internal/logging"
	"github.com/tcgis/marketarea/internal/reflayer"
	"github.com/tcgis/marketarea/internal/selection"
	"github.com/tcgis/marketarea/internal/telemetry"
	"github.com/tcgis/marketarea/internal/unify"
	"github.com/tcgis/marketarea/pkg/core"
)

func main() {
	configDir := flag.String("config", ".", "directory containing marketarea.cfg.json")
	inputPath := flag.String("input", "", "market-area JSON document to process")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: marketarea -input areas.json [-config dir]")
		os.Exit(2)
	}

	if err := config.Load(*configDir); err != nil {
		// Defaults still apply without a config file.
		fmt.Fprintf(os.Stderr, "config: %v (continuing with defaults)\n", err)
	}

	sessionStart := time.Now()
	logsDir := config.GetString("logsDir")
	_ = os.MkdirAll(logsDir, 0755)

	logManager := logging.NewSlogManager()
	logFile, err := os.Create(logging.LogFilePath(logsDir, "marketarea", sessionStart))
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
	}
	graylogAddr := ""
	if config.GetBool("graylog.enabled") {
		graylogAddr = config.GetString("graylog.address")
	}
	logManager.Setup(logFile, config.GetString("logLevel"), graylogAddr)
	logger := logManager.Logger()

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Persistent isochrone cache, best effort.
	var isoCache *drivetime.Cache
	if config.GetBool("drivetime.cacheEnabled") {
		dbManager := database.NewManager(zlog, filepath.Join(logsDir, "isochrones.db"))
		if err := dbManager.Connect(); err != nil {
			logger.Warn("isochrone cache unavailable", "error", err)
		} else if err := dbManager.Setup(&drivetime.IsochroneRecord{}); err != nil {
			logger.Warn("isochrone cache migration failed", "error", err)
		} else {
			isoCache, err = drivetime.NewCache(dbManager.DB, config.GetString("drivetime.travelMode"))
			if err != nil {
				logger.Warn("isochrone cache init failed", "error", err)
			}
		}
	}

	var influx *telemetry.Manager
	if config.GetBool("influx.enabled") {
		influx = telemetry.NewManager(zlog, filepath.Join(logsDir, "telemetry.backup.gz"))
		if err := influx.Connect(); err != nil {
			logger.Warn("telemetry disabled", "error", err)
			influx = nil
		}
	}

	svc := drivetime.NewClient(
		config.GetString("drivetime.serviceUrl"),
		config.GetString("drivetime.apiKey"),
		config.GetString("drivetime.travelMode"),
	)
	resolver := drivetime.NewResolver(svc, isoCache,
		config.GetFloat("drivetime.metersPerMinute"), logger)

	unifier := unify.NewEngine(geo.SimpleFeaturesOps{}, unify.Thresholds{
		HoleAreaRatio:     config.GetFloat("unify.holeAreaRatio"),
		MinHolePerimeter:  config.GetFloat("unify.holeMinPerimeter"),
		SimplifyTolerance: config.GetFloat("unify.simplifyTolerance"),
	}, logger)

	if influx != nil {
		resolver.SetObserver(func(stage string, minutes float64, elapsed time.Duration) {
			point := telemetry.DriveTimePoint(stage, minutes, elapsed)
			if err := influx.WritePoint(context.Background(), telemetry.BucketDriveTime, point); err != nil {
				logger.Debug("telemetry write failed", "error", err)
			}
		})
		unifier.SetObserver(func(elapsed time.Duration, inputs, exteriors, holes, dropped int) {
			point := telemetry.UnifyPoint(elapsed, inputs, exteriors, holes, dropped)
			if err := influx.WritePoint(context.Background(), telemetry.BucketUnify, point); err != nil {
				logger.Debug("telemetry write failed", "error", err)
			}
		})
	}

	gen := generator.NewService(generator.Dependencies{
		Resolver:  resolver,
		Unifier:   unifier,
		RefLayers: reflayer.New(config.GetString("reflayer.serviceUrl")),
		Logger:    logger,
	})

	store := graphics.NewStore()
	reconciler, err := graphics.NewReconciler(store, logger)
	if err != nil {
		logger.Error("creating reconciler", "error", err)
		os.Exit(1)
	}

	sel := selection.NewManager(nil, logger)
	debounce := time.Duration(config.GetInt("engine.debounceMs")) * time.Millisecond
	eng := engine.New(gen, reconciler, sel, debounce, logger)
	defer eng.Close()

	areas, err := readAreas(*inputPath)
	if err != nil {
		logger.Error("reading input", "path", *inputPath, "error", err)
		os.Exit(1)
	}

	start := time.Now()
	if err := eng.OnMarketAreasChanged(context.Background(), areas); err != nil {
		logger.Warn("some market areas did not fully draw", "error", err)
	}
	elapsed := time.Since(start)

	for _, ma := range areas {
		drawn := store.ForMarketArea(ma.ID)
		counts := map[core.FeatureType]int{}
		for _, g := range drawn {
			counts[g.FeatureType]++
		}
		fmt.Printf("%s (%s %q): %d graphics %v\n", ma.ID, ma.Type, ma.Name, len(drawn), counts)
	}
	fmt.Printf("total drawn: %d in %s\n", store.Len(), elapsed)

	if influx != nil {
		point := telemetry.ReconcilePoint(elapsed, len(areas), store.Len(), 0, store.Len())
		if err := influx.WritePoint(context.Background(), telemetry.BucketReconcile, point); err != nil {
			logger.Debug("telemetry write failed", "error", err)
		}
	}
}

// readAreas accepts either a bare array of market areas or a
// {"marketAreas": [...]} document.
func readAreas(path string) ([]core.MarketArea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var areas []core.MarketArea
	if err := json.Unmarshal(data, &areas); err == nil {
		return areas, nil
	}
	var doc struct {
		MarketAreas []core.MarketArea `json:"marketAreas"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unrecognized input document: %w", err)
	}
	return doc.MarketAreas, nil
}
