package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pendulo_frames_decoded_total",
		Help: "Total number of video frames decoded",
	})

	FramesSelectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pendulo_frames_selected_total",
		Help: "Total number of frames selected by the sampling cadence",
	})

	FramesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pendulo_frames_skipped_total",
		Help: "Selected frames that produced no sample, by reason",
	}, []string{"reason"})

	SamplesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pendulo_samples_recorded_total",
		Help: "Total number of samples appended to traces",
	})

	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pendulo_jobs_processed_total",
		Help: "Total number of trace jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pendulo_job_processing_duration_seconds",
		Help:    "Duration of trace job stages",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pendulo_active_workers",
		Help: "Number of workers currently processing trace jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pendulo_retry_total",
		Help: "Total number of transport retries",
	}, []string{"attempt"})
)
