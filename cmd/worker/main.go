package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DFP1305/pendulo/internal/infra/archive"
	"github.com/DFP1305/pendulo/internal/infra/config"
	"github.com/DFP1305/pendulo/internal/infra/email"
	"github.com/DFP1305/pendulo/internal/infra/metrics"
	miniostorage "github.com/DFP1305/pendulo/internal/infra/minio"
	"github.com/DFP1305/pendulo/internal/infra/postgres"
	"github.com/DFP1305/pendulo/internal/infra/rabbitmq"
	"github.com/DFP1305/pendulo/internal/infra/tracing"
	"github.com/DFP1305/pendulo/internal/infra/video"
	"github.com/DFP1305/pendulo/internal/usecase"
	"github.com/DFP1305/pendulo/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")
	fatalOnErr(cfg.Validate(), "invalid config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting pendulo worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "pendulo-worker")
	switch {
	case errors.Is(err, tracing.ErrDisabled):
		log.Info("tracing disabled")
	case err != nil:
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	default:
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     cfg.MinIOEndpoint,
		AccessKey:    cfg.MinIOAccessKey,
		SecretKey:    cfg.MinIOSecretKey,
		UseSSL:       cfg.MinIOUseSSL,
		VideoBucket:  cfg.MinIOVideoBucket,
		ResultBucket: cfg.MinIOResultBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Video pipeline
	opener, locator, err := video.New(video.Options{
		Backend:    cfg.VideoBackend,
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
	}, log)
	fatalOnErr(err, "select video backend")

	extractor := usecase.NewExtractTraceUseCase(opener, locator, log, usecase.ExtractTraceConfig{
		SampleRateHz: cfg.SampleRateHz,
		PixelScale:   cfg.PixelToLengthScale,
	})
	fitter := usecase.NewFitTraceUseCase(log, usecase.FitTraceConfig{
		Guess:       cfg.Guess(),
		QualityFile: cfg.FitOutputFile,
		PlotFile:    cfg.FitPlotFile,
		ChartFile:   cfg.FitChartFile,
	})

	repo := postgres.NewJobRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	uc := usecase.NewProcessTraceJobUseCase(
		repo, storage, extractor, fitter, archive.NewZipCreator(),
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessTraceJobConfig{
			TempDir:       cfg.TempDir,
			MaxRetries:    cfg.MaxRetries,
			TimesFile:     cfg.TimesFile,
			PositionsFile: cfg.PositionsFile,
		},
	)

	// Metrics server
	metricsPort := cfg.MetricsPort
	if metricsPort == 0 {
		metricsPort = 9090
	}
	metricsSrv := metrics.StartMetricsServer(ctx, metricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQRequestQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("pendulo worker started, consuming trace requests")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("pendulo worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
