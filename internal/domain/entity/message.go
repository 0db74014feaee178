package entity

import "github.com/google/uuid"

// TraceRequestMessage is the inbound message from the trace.requests queue.
type TraceRequestMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    string    `json:"user_id"`
	VideoKey  string    `json:"video_key"`
	FileSize  int64     `json:"file_size"`
	UserEmail string    `json:"user_email"`
}

// TraceStatusMessage is the outbound message published to the trace.status queue.
type TraceStatusMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	UserID        string    `json:"user_id"`
	Status        JobStatus `json:"status"`
	VideoKey      string    `json:"video_key"`
	ResultKey     string    `json:"result_key,omitempty"`
	FramesDecoded int       `json:"frames_decoded,omitempty"`
	SampleCount   int       `json:"sample_count,omitempty"`
	QualityFactor *float64  `json:"quality_factor,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Attempt       int       `json:"attempt"`
	MaxAttempts   int       `json:"max_attempts"`
}
