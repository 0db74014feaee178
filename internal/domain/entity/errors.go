package entity

import "errors"

var (
	// ErrSourceUnavailable is returned when the video cannot be opened. Fatal for the run.
	ErrSourceUnavailable = errors.New("video source unavailable")
	// ErrInvalidFrameRate is returned when the reported frame rate cannot produce a sampling interval.
	ErrInvalidFrameRate = errors.New("invalid frame rate")
	// ErrNoObjectDetected means the mask of a frame had no foreground pixels.
	// The frame is skipped and the run continues.
	ErrNoObjectDetected = errors.New("no object detected")
	ErrEmptyFrame       = errors.New("empty frame")

	ErrTraceFinalized      = errors.New("trace already finalized")
	ErrLengthMismatch      = errors.New("time and position series differ in length")
	ErrInsufficientSamples = errors.New("not enough samples to fit")
)
