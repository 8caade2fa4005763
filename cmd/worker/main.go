package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/estateflow/backend/internal/application/inventory"
	pipelineapp "github.com/estateflow/backend/internal/application/pipeline"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/infrastructure/cache"
	"github.com/estateflow/backend/internal/infrastructure/config"
	"github.com/estateflow/backend/internal/infrastructure/event"
	"github.com/estateflow/backend/internal/infrastructure/logger"
	"github.com/estateflow/backend/internal/infrastructure/persistence"
	"github.com/estateflow/backend/internal/infrastructure/scheduler"
	"github.com/estateflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run wires the worker and returns the process exit code. Deferred
// shutdowns always run before the process exits.
func run(args []string) int {
	var (
		runJob      string
		importLeads string
	)
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.StringVar(&runJob, "run", "", "Run one job (reconcile_buildings, followup_digest) and exit")
	fs.StringVar(&importLeads, "import-leads", "", "Import leads from a CSV file and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync(log)

	ctx := context.Background()
	svc := telemetry.Service{Name: cfg.App.Name, Version: version, Env: cfg.App.Env}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, svc, log)
	if err != nil {
		log.Error("Failed to initialize tracer provider", zap.Error(err))
		return 1
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, svc, log)
	if err != nil {
		log.Error("Failed to initialize meter provider", zap.Error(err))
		return 1
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, svc, log)
	if err != nil {
		log.Error("Failed to initialize logger provider", zap.Error(err))
		return 1
	}
	log = logProvider.Bridge(log, cfg.App.Name, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.StartProfiler(cfg.Telemetry.ProfilerEnabled, cfg.Telemetry.ProfilerAddress, svc, log)
	if err != nil {
		log.Error("Failed to start profiler", zap.Error(err))
		return 1
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
		for name, shutdown := range map[string]func(context.Context) error{
			"tracer": tracerProvider.Shutdown,
			"meter":  meterProvider.Shutdown,
			"logger": logProvider.Shutdown,
		} {
			if err := shutdown(context.Background()); err != nil {
				log.Error("Error shutting down telemetry", zap.String("provider", name), zap.Error(err))
			}
		}
	}()

	log.Info("Starting estate worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("timezone", cfg.App.Timezone),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
			return
		}
		log.Info("Database closed")
	}()
	// postgres schemas are owned by cmd/migrate
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Error("Failed to migrate sqlite schema", zap.Error(err))
			return 1
		}
	}
	if cfg.Telemetry.DBTracing {
		if err := telemetry.RegisterDBTracing(db.DB, tracerProvider.Provider(), db.Driver(), log); err != nil {
			log.Error("Failed to enable database tracing", zap.Error(err))
			return 1
		}
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	lockerFactory := cache.NewEntityLockerFactory(cfg.Lock, cfg.Redis, cache.WithLogger(log))
	locker, err := lockerFactory.CreateLocker()
	if err != nil {
		log.Error("Failed to create entity locker", zap.Error(err))
		return 1
	}
	defer locker.Close()

	loc := cfg.App.Location()
	clock := shared.ClockFunc(func() time.Time { return time.Now().In(loc) })

	inventoryService := inventoryapp.NewInventoryService(
		persistence.NewGormBuildingRepository(db.DB),
		persistence.NewGormFloorUnitRepository(db.DB),
		persistence.NewGormPropertyRepository(db.DB),
		persistence.NewGormInventoryTransactionScope(db.DB),
		locker,
	)
	inventoryService.SetClock(clock)
	inventoryService.SetLogger(log)

	pipelineService := pipelineapp.NewPipelineService(
		persistence.NewGormLeadRepository(db.DB),
		persistence.NewGormFollowUpRepository(db.DB),
		persistence.NewGormPipelineTransactionScope(db.DB),
		locker,
	)
	pipelineService.SetClock(clock)
	pipelineService.SetLogger(log)
	pipelineService.SetUpcomingLimit(cfg.Pipeline.UpcomingLimit)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingHandler(log))
	if cfg.Inventory.AutoReconcile {
		subUnitsHandler := inventoryapp.NewSubUnitsAddedHandler(inventoryService, log)
		eventBus.Subscribe(subUnitsHandler, subUnitsHandler.EventTypes()...)
		log.Info("Auto reconcile enabled", zap.Strings("events", subUnitsHandler.EventTypes()))
	}
	inventoryService.SetEventPublisher(eventBus)
	pipelineService.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Error("Failed to start event bus", zap.Error(err))
		return 1
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if importLeads != "" {
		if err := runLeadImport(ctx, pipelineService, importLeads, log); err != nil {
			log.Error("Lead import failed", zap.Error(err))
			return 1
		}
		return 0
	}

	claims, err := lockerFactory.CreateClaimStore()
	if err != nil {
		log.Error("Failed to create job claim store", zap.Error(err))
		return 1
	}
	defer claims.Close()

	jobMetrics, err := telemetry.NewJobMetrics(meterProvider.Meter("estate.scheduler"))
	if err != nil {
		log.Error("Failed to create job metrics", zap.Error(err))
		return 1
	}

	jobs := scheduler.New(cfg.Scheduler, loc, log,
		scheduler.WithRunClaimer(claims),
		scheduler.WithTracer(tracerProvider.Tracer("estate.scheduler")),
		scheduler.WithRunObserver(jobMetrics),
	)
	if err := scheduler.RegisterDefaultJobs(jobs, cfg.Scheduler, inventoryService, pipelineService); err != nil {
		log.Error("Failed to register jobs", zap.Error(err))
		return 1
	}

	if runJob != "" {
		jobRun, err := jobs.RunNow(ctx, runJob)
		if err != nil {
			log.Error("Job failed", zap.String("job", runJob), zap.Error(err))
			return 1
		}
		log.Info("Job finished", zap.String("job", jobRun.Job), zap.Duration("duration", jobRun.Duration()))
		return 0
	}

	if !cfg.Scheduler.Enabled {
		log.Warn("Scheduler disabled, nothing to do")
		return 0
	}
	jobs.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down worker...")

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := jobs.Stop(stopCtx); err != nil {
		log.Error("Scheduler forced to stop", zap.Error(err))
	}

	log.Info("Worker exited gracefully")
	return 0
}

func runLeadImport(ctx context.Context, svc *pipelineapp.PipelineService, path string, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	result, err := svc.ImportLeads(ctx, f)
	if err != nil {
		return err
	}

	log.Info("Lead import finished",
		zap.String("file", path),
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("errors", result.ErrorRows),
	)
	for _, rowErr := range result.Errors {
		log.Warn("Row rejected",
			zap.Int("row", rowErr.Row),
			zap.String("column", rowErr.Column),
			zap.String("message", rowErr.Message),
		)
	}
	return nil
}
