// Command tracker samples a pendulum video at a fixed rate and writes the
// elapsed times and horizontal positions of the bob to two text files.
//
// Usage:
//
//	tracker [video]
//
// The video path defaults to VIDEO_PATH. All other settings come from the
// environment (see internal/infra/config).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/infra/config"
	"github.com/DFP1305/pendulo/internal/infra/metrics"
	"github.com/DFP1305/pendulo/internal/infra/tracing"
	"github.com/DFP1305/pendulo/internal/infra/video"
	"github.com/DFP1305/pendulo/internal/trace"
	"github.com/DFP1305/pendulo/internal/usecase"
	"github.com/DFP1305/pendulo/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code so that deferred cleanup always runs.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		return fail(stderr, "load config", err)
	}
	if len(args) > 0 {
		cfg.VideoPath = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return fail(stderr, "invalid config", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fail(stderr, "init logger", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "pendulo-tracker")
	switch {
	case errors.Is(err, tracing.ErrDisabled):
	case err != nil:
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	default:
		defer tp.Shutdown(context.Background())
	}

	if cfg.MetricsPort != 0 {
		srv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	opener, locator, err := video.New(video.Options{
		Backend:    cfg.VideoBackend,
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
	}, log)
	if err != nil {
		return fail(stderr, "select video backend", err)
	}

	uc := usecase.NewExtractTraceUseCase(opener, locator, log, usecase.ExtractTraceConfig{
		SampleRateHz: cfg.SampleRateHz,
		PixelScale:   cfg.PixelToLengthScale,
	})

	files := trace.Files{Dir: cfg.OutputDir, Times: cfg.TimesFile, Positions: cfg.PositionsFile}
	res, err := uc.ExecuteToFiles(ctx, cfg.VideoPath, files)
	if err != nil {
		return fail(stderr, describe(err, cfg.VideoPath), err)
	}

	fmt.Fprintf(stdout, "%d samples from %d frames (%d skipped) -> %s, %s\n",
		res.Stats.Samples, res.Stats.FramesDecoded, res.Stats.FramesSkipped,
		files.TimesPath(), files.PositionsPath())
	return 0
}

// describe names the cause of a fatal extraction error for the user.
func describe(err error, videoPath string) string {
	switch {
	case errors.Is(err, entity.ErrSourceUnavailable):
		return fmt.Sprintf("could not open video %q", videoPath)
	case errors.Is(err, entity.ErrInvalidFrameRate):
		return fmt.Sprintf("video %q has an unusable frame rate", videoPath)
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return "trace extraction failed"
	}
}

func fail(stderr io.Writer, msg string, err error) int {
	fmt.Fprintf(stderr, "tracker: %s: %v\n", msg, err)
	return 1
}
