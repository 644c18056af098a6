package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ctc-oss/foreman/pkg/attribution"
	"github.com/ctc-oss/foreman/pkg/config"
	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/metrics"
	"github.com/ctc-oss/foreman/pkg/reconciler"
	"github.com/ctc-oss/foreman/pkg/results"
	"github.com/ctc-oss/foreman/pkg/scheduler"
	"github.com/ctc-oss/foreman/pkg/storage"
	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/workspace"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler, reconciler, and metrics server",
	RunE:  runScheduler,
}

func init() {
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	logger := log.WithComponent("cmd")

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	wsStore, err := workspace.NewLocalStore(cfg.Workspace.BasePath, nil)
	if err != nil {
		return fmt.Errorf("open workspace store: %w", err)
	}
	results.RegisterDataFileStore(wsStore)

	attributor := attribution.New(store, store, store)
	backPressure := scheduler.NewBackPressureAdapter(store, attributor)

	selector := &storeNodeSelector{store: store}
	launcher := &logLauncher{logger: log.WithComponent("launcher")}
	sched := scheduler.New(selector, launcher)
	sched.Start()
	defer sched.Stop()

	aggregator := results.New(wsStore, wsStore)
	queueSink := &scheduler.ResultsQueueSink{Store: store, Aggregator: aggregator, Logger: log.WithComponent("queue")}
	catalog := scheduler.NewStaticErrorCatalog()
	factory := task.NewFactory()

	enqueueCtx, cancelEnqueue := context.WithCancel(context.Background())
	defer cancelEnqueue()
	go runEnqueueLoop(enqueueCtx, sched, store, store, factory, queueSink, catalog, backPressure, logger)

	recon := reconciler.NewReconciler(store, sched)
	recon.Start()
	defer recon.Stop()

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

	metrics.RegisterComponent("storage", true, "ready")
	metrics.RegisterComponent("enqueue", true, "ready")
	metrics.RegisterComponent("scheduler", true, "ready")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", metrics.HealthHandler())
	mux.HandleFunc("/readyz", metrics.ReadyHandler())
	mux.HandleFunc("/livez", metrics.LivenessHandler())

	server := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
	go func() {
		logger.Info().Str("addr", cfg.Metrics.Listen).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
