package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/engage"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/campus-feed-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/localist"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/mapbox"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/openspace"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/waitz"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/weatherstem"
	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
	"github.com/couchcryptid/campus-feed-etl-service/internal/pipeline"
)

func main() {
	jobName := flag.String("job", "", "run only this job (with -once)")
	once := flag.Bool("once", false, "run one cycle and exit instead of serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	domain.SetLocation(loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.CampusLat, cfg.CampusLon, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var notifier pipeline.Notifier
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		notifier = publisher
		logger.Info("change feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaChangeTopic)
	}

	runner := pipeline.NewRunner(cfg.JobTimeout, notifier, logger, metrics,
		pipeline.NewCalendarEventsJob(localist.NewClient(cfg.Localist, metrics, logger), store, geocoder, logger),
		pipeline.NewOrganizationEventsJob(engage.NewClient(cfg.Engage, cfg.EngageWindowDays, metrics, logger), store, geocoder, logger),
		pipeline.NewOccupancyJob(waitz.NewClient(cfg.Waitz, cfg.WaitzCampus, metrics, logger), store, logger),
		pipeline.NewParkingJob(openspace.NewClient(cfg.OpenSpace, metrics, logger), store, geocoder, logger),
		pipeline.NewWeatherJob(weatherstem.NewClient(cfg.WeatherStem, cfg.WeatherStemStation, metrics, logger), store, cfg.CampusLat, cfg.CampusLon, logger),
	)

	if *once {
		code := runOnce(ctx, runner, *jobName, logger)
		closePublisher(publisher, logger)
		if err := store.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
		stop()
		os.Exit(code)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness{runner, store}, runner, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.RunOnStart {
		go runner.RunAll(ctx)
	}

	schedulerDone := make(chan struct{})
	if cfg.SchedulerEnabled {
		scheduler, err := pipeline.NewScheduler(runner, cfg.Schedules, loc, metrics, logger)
		if err != nil {
			logger.Error("failed to build scheduler", "error", err)
			os.Exit(1)
		}
		go func() {
			scheduler.Run(ctx)
			close(schedulerDone)
		}()
	} else {
		logger.Info("scheduler disabled, jobs run only via POST /jobs/{name}/run")
		close(schedulerDone)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("in-flight cycles did not finish before shutdown timeout")
	}
	closePublisher(publisher, logger)

	logger.Info("shutdown complete")
}

// runOnce runs a single cycle of one job, or of every job when name is
// empty. The exit code is non-zero when any cycle aborted or failed.
func runOnce(ctx context.Context, runner *pipeline.Runner, name string, logger *slog.Logger) int {
	var results []domain.RunResult
	if name == "" {
		results = runner.RunAll(ctx)
	} else {
		res, err := runner.RunJob(ctx, name)
		if err != nil {
			logger.Error("cannot run job", "error", err, "jobs", runner.Jobs())
			return 2
		}
		results = append(results, res)
	}

	for _, res := range results {
		if res.Outcome == domain.OutcomeAborted || res.Outcome == domain.OutcomeFailed {
			return 1
		}
	}
	return 0
}

func closePublisher(p *kafkaadapter.Publisher, logger *slog.Logger) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}
}
