package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/api/handlers"
	"github.com/runwayhq/runway/internal/api/middleware"
	"github.com/runwayhq/runway/internal/archive"
	"github.com/runwayhq/runway/internal/categorize"
	"github.com/runwayhq/runway/internal/config"
	"github.com/runwayhq/runway/internal/importer"
	"github.com/runwayhq/runway/internal/jobs"
	"github.com/runwayhq/runway/internal/jobs/inmemory"
	"github.com/runwayhq/runway/internal/logger"
	"github.com/runwayhq/runway/internal/metrics"
	"github.com/runwayhq/runway/internal/store"
	storebq "github.com/runwayhq/runway/internal/store/bigquery"
	"github.com/runwayhq/runway/internal/store/memory"
	"github.com/runwayhq/runway/internal/store/sqlite"
	"github.com/runwayhq/runway/internal/timeline"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("RUNWAY_CONFIG"), "Path to TOML config (or set RUNWAY_CONFIG)")
		port       = flag.Int("port", 0, "HTTP port, overrides the config file")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx := context.Background()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Job infrastructure: the archive worker uploads committed CSVs to
	// GCS in the background when a bucket is configured.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var publisher jobs.Publisher
	if cfg.Archive.Bucket != "" {
		archiver, err := archive.New(ctx, cfg.Archive.Bucket)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Archive.Bucket).Msg("Failed to init archiver")
		}
		defer archiver.Close()

		go func() {
			log.Info().Str("bucket", cfg.Archive.Bucket).Msg("Starting archive worker")
			if err := jobQueue.Start(workerCtx, archiveHandler(archiver, m, log)); err != nil {
				log.Error().Err(err).Msg("Archive worker stopped with error")
			}
		}()
		publisher = jobQueue
	} else {
		log.Warn().Msg("No archive bucket configured, committed uploads will not be archived")
	}

	var classifier categorize.Classifier
	if cfg.Categorize.UseModel {
		classifier = categorize.NewGeminiClassifier(cfg.Categorize.Model)
	}

	importSvc := importer.NewService(st, classifier, cfg.DedupConfig(), log)
	window := timeline.Window{Past: cfg.Forecast.PastWeeks, Future: cfg.Forecast.FutureWeeks}

	importsHandler := handlers.NewImportsHandler(importSvc, publisher, m, log)
	transactionsHandler := handlers.NewTransactionsHandler(st, log)
	estimatesHandler := handlers.NewEstimatesHandler(st, log)
	forecastHandler := handlers.NewForecastHandler(st, window, cfg.Scenarios, m, log)
	categoriesHandler := &handlers.CategoriesHandler{}
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/imports/preview", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			importsHandler.Preview(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/imports/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/imports/")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(rest, "/commit"):
			id := strings.TrimSuffix(rest, "/commit")
			if id == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Preview ID is required")
				return
			}
			importsHandler.Commit(w, r, id)
		case r.Method == http.MethodDelete && rest != "":
			importsHandler.Abandon(w, r, rest)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.List(w, r)
		case http.MethodDelete:
			transactionsHandler.Delete(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/estimates", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			estimatesHandler.List(w, r)
		case http.MethodPost, http.MethodPut:
			estimatesHandler.Put(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/estimates/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			id := strings.TrimPrefix(r.URL.Path, "/api/estimates/")
			if id == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Estimate ID is required")
				return
			}
			estimatesHandler.Delete(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			forecastHandler.Get(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/forecast/scenarios", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			forecastHandler.Compare(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/receivables", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			forecastHandler.SetReceivables(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			categoriesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.Get(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.Metrics(m)(
				middleware.RequestID(
					middleware.CORS(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("store", cfg.Store.Backend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Job queue shutdown failed")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStore selects the persistence backend from config.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(cfg.Store.SQLitePath)
	case "bigquery":
		return storebq.New(ctx, cfg.Store.ProjectID, cfg.Store.Dataset, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// archiveHandler uploads one committed CSV to GCS and records the
// resulting URI on the job.
func archiveHandler(archiver *archive.Archiver, m *metrics.Metrics, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		uploadJob, ok := job.(*jobs.ArchiveUploadJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		uri, err := archiver.Upload(ctx, uploadJob.Filename, uploadJob.Data)
		if err != nil {
			m.JobsProcessed.WithLabelValues(string(jobs.JobTypeArchiveUpload), "error").Inc()
			log.Error().Err(err).Str("job_id", uploadJob.JobID).Msg("Archive upload failed")
			return err
		}
		uploadJob.ArchiveURI = uri

		m.JobsProcessed.WithLabelValues(string(jobs.JobTypeArchiveUpload), "ok").Inc()
		log.Info().
			Str("job_id", uploadJob.JobID).
			Str("import_id", uploadJob.ImportID).
			Str("uri", uri).
			Msg("Archived import upload")
		return nil
	}
}
