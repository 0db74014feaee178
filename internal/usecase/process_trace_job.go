package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/domain/port"
	"github.com/DFP1305/pendulo/internal/infra/metrics"
	"github.com/DFP1305/pendulo/internal/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessTraceJobUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	extractor *ExtractTraceUseCase
	fitter    *FitTraceUseCase
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	files     trace.Files
}

type ProcessTraceJobConfig struct {
	TempDir       string
	MaxRetries    int
	TimesFile     string
	PositionsFile string
}

// NewProcessTraceJobUseCase wires the queue-driven pipeline. fitter may be nil,
// in which case results carry only the two series.
func NewProcessTraceJobUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	extractor *ExtractTraceUseCase,
	fitter *FitTraceUseCase,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessTraceJobConfig,
) *ProcessTraceJobUseCase {
	files := trace.Files{Times: cfg.TimesFile, Positions: cfg.PositionsFile}
	if files.Times == "" {
		files.Times = trace.DefaultTimesFile
	}
	if files.Positions == "" {
		files.Positions = trace.DefaultPositionsFile
	}
	return &ProcessTraceJobUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		fitter:    fitter,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		files:     files,
	}
}

// RetryableError asks the consumer to redeliver the request. Attempt comes
// from the job row so the backoff grows across redeliveries.
type RetryableError struct {
	Attempt     int
	MaxAttempts int
	Reason      string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable failure (attempt %d/%d): %s", e.Attempt, e.MaxAttempts, e.Reason)
}

func (e *RetryableError) RetryAttempt() int {
	return e.Attempt
}

// ResultKey is the object key of the archive produced for a job.
func ResultKey(userID string, job *entity.TraceJob) string {
	return fmt.Sprintf("%s/trace_%s.zip", userID, job.ID.String())
}

// Execute handles one request delivery. A non-nil error asks the consumer to
// redeliver; requests that can never succeed are parked on the DLQ instead.
func (uc *ProcessTraceJobUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, "ProcessTraceJobUseCase.Execute")
	defer span.End()

	start := time.Now()

	var msg entity.TraceRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)
	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewTraceJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if job.Status == entity.JobStatusCompleted {
		log.Info("job already completed, skipping redelivery")
		return nil
	}
	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded", log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.pipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	return nil
}

func (uc *ProcessTraceJobUseCase) pipeline(
	ctx context.Context,
	job *entity.TraceJob,
	msg entity.TraceRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	dlStart := time.Now()
	dlCtx, dlSpan := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input"+filepath.Ext(msg.VideoKey))
	err := uc.storage.DownloadVideo(dlCtx, msg.VideoKey, videoPath)
	dlSpan.End()
	if err != nil {
		log.Error("failed to download video", zap.Error(err))
		if errors.Is(err, entity.ErrSourceUnavailable) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	exStart := time.Now()
	files := uc.files
	files.Dir = filepath.Join(workDir, "result")
	res, err := uc.extractor.ExecuteToFiles(ctx, videoPath, files)
	if err != nil {
		if errors.Is(err, entity.ErrSourceUnavailable) || errors.Is(err, entity.ErrInvalidFrameRate) {
			log.Error("video cannot be traced", zap.Error(err))
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "extract_trace: "+err.Error(), log)
		}
		log.Error("trace extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract_trace: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())

	outputs := []string{files.TimesPath(), files.PositionsPath()}
	var quality *float64
	if uc.fitter != nil {
		fitStart := time.Now()
		report, err := uc.fitter.Execute(ctx, res.Trace.Times(), res.Trace.Positions(), files.Dir)
		if err != nil {
			log.Warn("fit skipped", zap.Error(err), zap.Int("samples", res.Trace.Len()))
		} else {
			q := report.QualityFactor
			quality = &q
			outputs = append(outputs, report.Files...)
			metrics.JobProcessingDuration.WithLabelValues("fit").Observe(time.Since(fitStart).Seconds())
		}
	}

	zipStart := time.Now()
	zipCtx, zipSpan := tracer.Start(ctx, "create_zip")
	zipPath := filepath.Join(workDir, "trace.zip")
	err = uc.archiver.CreateZip(zipCtx, outputs, zipPath)
	zipSpan.End()
	if err != nil {
		log.Error("zip creation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "create_zip: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("zip").Observe(time.Since(zipStart).Seconds())

	upStart := time.Now()
	upCtx, upSpan := tracer.Start(ctx, "upload_result")
	resultKey := ResultKey(msg.UserID, job)
	err = uc.upload(upCtx, resultKey, zipPath)
	upSpan.End()
	if err != nil {
		log.Error("result upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_result: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(resultKey, res.Stats, quality)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)
	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()

	fields := []zap.Field{
		zap.Int("frames_decoded", res.Stats.FramesDecoded),
		zap.Int("samples", res.Stats.Samples),
		zap.String("result_key", resultKey),
	}
	if quality != nil {
		fields = append(fields, zap.Float64("quality_factor", *quality))
	}
	log.Info("job completed successfully", fields...)
	return nil
}

func (uc *ProcessTraceJobUseCase) upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	return uc.storage.UploadResult(ctx, key, f, st.Size())
}

func (uc *ProcessTraceJobUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.TraceJob,
	msg entity.TraceRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg, log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return &RetryableError{Attempt: job.Attempt, MaxAttempts: job.MaxAttempts, Reason: errMsg}
}

func (uc *ProcessTraceJobUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.TraceJob,
	msg entity.TraceRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if err := uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg); err != nil {
		log.Error("failed to publish to DLQ", zap.Error(err))
	}
	uc.publishStatus(ctx, job, log)
	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		if err := uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg); err != nil {
			log.Warn("failed to notify user", zap.Error(err))
		}
	}
	return nil
}

func (uc *ProcessTraceJobUseCase) publishStatus(ctx context.Context, job *entity.TraceJob, log *zap.Logger) {
	status := entity.TraceStatusMessage{
		JobID:         job.ID,
		UserID:        job.UserID,
		Status:        job.Status,
		VideoKey:      job.VideoKey,
		ResultKey:     job.ResultKey,
		FramesDecoded: job.FramesDecoded,
		SampleCount:   job.SampleCount,
		QualityFactor: job.QualityFactor,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
	}
	if err := uc.publisher.PublishStatus(ctx, status); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
