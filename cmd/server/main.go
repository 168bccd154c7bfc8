package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vellum/internal/artifact"
	"vellum/internal/audit"
	issuancehandler "vellum/internal/issuance/handler"
	"vellum/internal/issuance/service"
	"vellum/internal/issuance/store"
	"vellum/internal/notify"
	"vellum/internal/platform/config"
	"vellum/internal/platform/httpserver"
	"vellum/internal/platform/logger"
	"vellum/internal/platform/metrics"
	"vellum/internal/platform/postgres"
	platformredis "vellum/internal/platform/redis"
	"vellum/internal/render"
	"vellum/internal/token"
	httptransport "vellum/internal/transport/http"
)

// auditBuffer is the audit inbox capacity. A full inbox drops events
// rather than blocking the issuance pipeline.
const auditBuffer = 1024

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var health []httptransport.HealthCheck

	// Record store: postgres when configured, in-memory otherwise.
	var records store.Records
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal(log, "postgres unavailable", err)
	}
	if db != nil {
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			fatal(log, "issuance schema migration failed", err)
		}
		records = pg
		health = append(health, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
	} else {
		records = store.NewMemory()
		log.Warn("no database configured, issuance records are in-memory only")
	}

	// Optional redis read-through cache in front of the record store.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		fatal(log, "redis unavailable", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		records = store.NewCache(records, redisClient.Client,
			store.WithTTL(cfg.Redis.CacheTTL),
			store.WithLogger(log),
		)
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	// Artifact storage: S3 when a bucket is configured, in-memory otherwise.
	var artifacts service.ArtifactStore
	if cfg.S3.Bucket != "" {
		s3Store, err := artifact.NewS3Store(ctx, artifact.S3Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			Prefix:        cfg.S3.Prefix,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		})
		if err != nil {
			fatal(log, "artifact store init failed", err)
		}
		artifacts = s3Store
	} else {
		artifacts = artifact.NewInMemoryStore()
		log.Warn("no artifact bucket configured, certificates are in-memory only")
	}

	renderer, err := render.NewPNG()
	if err != nil {
		fatal(log, "certificate renderer init failed", err)
	}

	mailer, err := notify.NewMailer(notify.Config{
		Host:            cfg.SMTP.Host,
		Port:            cfg.SMTP.Port,
		Username:        cfg.SMTP.Username,
		Password:        cfg.SMTP.Password,
		From:            cfg.SMTP.From,
		FrontendBaseURL: cfg.FrontendBaseURL,
	})
	if err != nil {
		fatal(log, "smtp mailer init failed", err)
	}

	// Audit trail: events queue onto the publisher inbox, a worker drains
	// them to kafka (or process memory when no brokers are configured).
	publisher := audit.NewPublisher(auditBuffer, log)
	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			fatal(log, "audit kafka sink init failed", err)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events on kafka", "topic", cfg.Kafka.Topic)
	} else {
		sink = audit.NewInMemorySink()
		log.Warn("no kafka brokers configured, audit events stay in process memory")
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = audit.NewWorker(sink, publisher.Inbox(), log).Run(workerCtx)
	}()

	issuance := service.New(records, renderer, artifacts, mailer,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithConcurrency(cfg.BatchConcurrency),
	)

	tokens := token.NewService(cfg.JWTSigningKey, "vellum", "vellum-operators")
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:   log,
		Metrics:  m,
		Handlers: []httptransport.Registrar{issuancehandler.New(issuance, token.NewAdapter(tokens), log)},
		Health:   health,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting vellum", "addr", cfg.Addr, "batch_concurrency", cfg.BatchConcurrency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	// Stop the audit worker only after in-flight requests finished emitting.
	stopWorker()
	<-workerDone
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
