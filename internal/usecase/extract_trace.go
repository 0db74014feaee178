package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/domain/port"
	"github.com/DFP1305/pendulo/internal/infra/metrics"
	"github.com/DFP1305/pendulo/internal/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const DefaultSampleRateHz = 10

type ExtractTraceConfig struct {
	SampleRateHz float64
	PixelScale   float64
}

// ExtractTraceUseCase samples a video at a fixed cadence and records the
// horizontal position of the pendulum in each selected frame.
type ExtractTraceUseCase struct {
	opener  port.VideoOpener
	locator port.ObjectLocator
	logger  *zap.Logger
	rate    float64
	scale   float64
}

type ExtractionResult struct {
	Trace  entity.Trace
	Output trace.Output
	Stats  entity.RunStats
}

func NewExtractTraceUseCase(
	opener port.VideoOpener,
	locator port.ObjectLocator,
	logger *zap.Logger,
	cfg ExtractTraceConfig,
) *ExtractTraceUseCase {
	rate := cfg.SampleRateHz
	if rate == 0 {
		rate = DefaultSampleRateHz
	}
	return &ExtractTraceUseCase{
		opener:  opener,
		locator: locator,
		logger:  logger,
		rate:    rate,
		scale:   cfg.PixelScale,
	}
}

// SampleInterval is the number of source frames between selected frames.
func SampleInterval(frameRate, sampleRateHz float64) (int, error) {
	if sampleRateHz <= 0 || math.IsNaN(sampleRateHz) {
		return 0, fmt.Errorf("sample rate must be positive, got %v", sampleRateHz)
	}
	if frameRate <= 0 || math.IsNaN(frameRate) || math.IsInf(frameRate, 0) {
		return 0, fmt.Errorf("%w: source reports %v fps", entity.ErrInvalidFrameRate, frameRate)
	}
	n := int(frameRate / sampleRateHz)
	if n < 1 {
		return 0, fmt.Errorf("%w: %v fps is slower than %v samples/s", entity.ErrInvalidFrameRate, frameRate, sampleRateHz)
	}
	return n, nil
}

type samplingState int

const (
	stateStreaming samplingState = iota
	stateDone
)

func (s samplingState) String() string {
	if s == stateDone {
		return "DONE"
	}
	return "STREAMING"
}

// sampler holds the only mutable state of a run. Elapsed time is derived from
// the number of successful samples, so a skipped frame never shifts it.
type sampler struct {
	state      samplingState
	frameIndex int
	interval   int
	rate       float64
	samples    int
}

func (s *sampler) selects() bool {
	return s.frameIndex%s.interval == 0
}

func (s *sampler) elapsed() float64 {
	return float64(s.samples) / s.rate
}

// Execute runs the sampling loop to the end of the stream. Opening failures and
// unusable frame rates are fatal; frames without a detectable object are skipped.
func (uc *ExtractTraceUseCase) Execute(ctx context.Context, videoPath string) (*ExtractionResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractTraceUseCase.Execute")
	defer span.End()

	span.SetAttributes(attribute.String("video.path", videoPath))
	log := uc.logger.With(zap.String("video", videoPath))

	src, err := uc.opener.Open(ctx, videoPath)
	if err != nil {
		if !errors.Is(err, entity.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", entity.ErrSourceUnavailable, err)
		}
		log.Error("failed to open video", zap.Error(err))
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("failed to release video source", zap.Error(cerr))
		}
	}()

	info := src.Info()
	interval, err := SampleInterval(info.FrameRate, uc.rate)
	if err != nil {
		log.Error("cannot derive sampling interval", zap.Float64("frame_rate", info.FrameRate), zap.Error(err))
		return nil, err
	}

	log.Info("sampling video",
		zap.Float64("frame_rate", info.FrameRate),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int("interval_frames", interval),
		zap.Float64("sample_rate_hz", uc.rate),
	)

	s := &sampler{state: stateStreaming, interval: interval, rate: uc.rate}
	rec := trace.NewRecorder()
	stats := entity.RunStats{FrameRate: info.FrameRate, Interval: interval}

	for s.state == stateStreaming {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.state = uc.step(src, s, rec, &stats, log)
	}

	out, err := rec.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize trace: %w", err)
	}

	span.SetAttributes(
		attribute.Int("frames.decoded", stats.FramesDecoded),
		attribute.Int("frames.skipped", stats.FramesSkipped),
		attribute.Int("samples", stats.Samples),
	)
	log.Info("sampling finished",
		zap.Int("frames_decoded", stats.FramesDecoded),
		zap.Int("frames_selected", stats.FramesSelected),
		zap.Int("frames_skipped", stats.FramesSkipped),
		zap.Int("samples", stats.Samples),
	)

	return &ExtractionResult{Trace: rec.Trace(), Output: out, Stats: stats}, nil
}

// ExecuteToFiles runs Execute and writes both series. Nothing is written when
// the run fails.
func (uc *ExtractTraceUseCase) ExecuteToFiles(ctx context.Context, videoPath string, files trace.Files) (*ExtractionResult, error) {
	res, err := uc.Execute(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if err := files.Write(res.Output); err != nil {
		return nil, err
	}
	uc.logger.Info("trace written",
		zap.String("times", files.TimesPath()),
		zap.String("positions", files.PositionsPath()),
		zap.Int("samples", res.Trace.Len()),
	)
	return res, nil
}

func (uc *ExtractTraceUseCase) step(
	src port.VideoSource,
	s *sampler,
	rec *trace.Recorder,
	stats *entity.RunStats,
	log *zap.Logger,
) samplingState {
	frame, err := src.Next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warn("decoding stopped", zap.Int("frame_index", s.frameIndex), zap.Error(err))
		}
		return stateDone
	}
	defer func() { s.frameIndex++ }()

	stats.FramesDecoded++
	metrics.FramesDecodedTotal.Inc()

	if !s.selects() {
		return stateStreaming
	}
	stats.FramesSelected++
	metrics.FramesSelectedTotal.Inc()

	sample, err := uc.measure(frame, s.elapsed())
	if err != nil {
		stats.FramesSkipped++
		metrics.FramesSkippedTotal.WithLabelValues(skipReason(err)).Inc()
		log.Warn("no sample for frame",
			zap.Int("frame_index", s.frameIndex),
			zap.Float64("elapsed_time", s.elapsed()),
			zap.Error(err),
		)
		return stateStreaming
	}

	if err := rec.Record(sample); err != nil {
		log.Error("failed to record sample", zap.Error(err))
		return stateDone
	}
	s.samples++
	stats.Samples++
	metrics.SamplesRecordedTotal.Inc()
	return stateStreaming
}

func (uc *ExtractTraceUseCase) measure(frame image.Image, elapsed float64) (entity.Sample, error) {
	x, err := uc.locator.LocateX(frame)
	if err != nil {
		return entity.Sample{}, err
	}
	return entity.Sample{ElapsedTime: elapsed, Position: float64(x) * uc.scale}, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, entity.ErrNoObjectDetected):
		return "no_object"
	case errors.Is(err, entity.ErrEmptyFrame):
		return "empty_frame"
	default:
		return "error"
	}
}
