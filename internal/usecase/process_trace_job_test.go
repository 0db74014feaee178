package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"testing"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/domain/port"
	"github.com/DFP1305/pendulo/internal/infra/archive"
	"github.com/DFP1305/pendulo/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	jobs map[uuid.UUID]entity.TraceJob
}

func newMemRepo() *memRepo { return &memRepo{jobs: map[uuid.UUID]entity.TraceJob{}} }

func (r *memRepo) Create(_ context.Context, job *entity.TraceJob) error {
	r.jobs[job.ID] = *job
	return nil
}

func (r *memRepo) Update(_ context.Context, job *entity.TraceJob) error {
	if _, ok := r.jobs[job.ID]; !ok {
		return errors.New("not found")
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.TraceJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &job, nil
}

type memStorage struct {
	downloadErr error
	uploads     map[string][]byte
}

func (s *memStorage) DownloadVideo(_ context.Context, _ string, destPath string) error {
	if s.downloadErr != nil {
		return s.downloadErr
	}
	return os.WriteFile(destPath, []byte("video"), 0644)
}

func (s *memStorage) UploadResult(_ context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("short upload")
	}
	if s.uploads == nil {
		s.uploads = map[string][]byte{}
	}
	s.uploads[key] = data
	return nil
}

type recordingPublisher struct {
	statuses []entity.TraceStatusMessage
}

func (p *recordingPublisher) PublishStatus(_ context.Context, msg entity.TraceStatusMessage) error {
	p.statuses = append(p.statuses, msg)
	return nil
}

type recordingDLQ struct {
	reasons []string
}

func (d *recordingDLQ) PublishToDLQ(_ context.Context, _ []byte, reason string) error {
	d.reasons = append(d.reasons, reason)
	return nil
}

type recordingNotifier struct {
	emails []string
}

func (n *recordingNotifier) NotifyFailure(_ context.Context, userEmail, _, _, _ string) error {
	n.emails = append(n.emails, userEmail)
	return nil
}

type jobHarness struct {
	repo     *memRepo
	storage  *memStorage
	pub      *recordingPublisher
	dlq      *recordingDLQ
	notifier *recordingNotifier
	uc       *ProcessTraceJobUseCase
}

func newJobHarness(t *testing.T, opener port.VideoOpener, maxRetries int) *jobHarness {
	t.Helper()
	h := &jobHarness{
		repo:     newMemRepo(),
		storage:  &memStorage{},
		pub:      &recordingPublisher{},
		dlq:      &recordingDLQ{},
		notifier: &recordingNotifier{},
	}
	h.uc = NewProcessTraceJobUseCase(
		h.repo, h.storage, newExtractor(opener, zap.NewNop()), nil,
		archive.NewZipCreator(), h.pub, h.dlq, h.notifier,
		zap.NewNop(),
		ProcessTraceJobConfig{TempDir: t.TempDir(), MaxRetries: maxRetries},
	)
	return h
}

func requestBody(t *testing.T, msg entity.TraceRequestMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestProcessTraceJobCompletes(t *testing.T) {
	frames := make([]image.Image, 12)
	for i := range frames {
		frames[i] = square(60 + i)
	}
	opener := &testutil.FakeOpener{Source: &testutil.FakeSource{VideoInfo: port.VideoInfo{FrameRate: 30}, Frames: frames}}
	h := newJobHarness(t, opener, 3)

	msg := entity.TraceRequestMessage{JobID: uuid.New(), UserID: "user-1", VideoKey: "user-1/pendulo.mp4"}
	require.NoError(t, h.uc.Execute(context.Background(), requestBody(t, msg)))

	key := "user-1/trace_" + msg.JobID.String() + ".zip"
	require.Contains(t, h.storage.uploads, key)
	assert.Equal(t, []string{"espacos.txt", "tempos.txt"}, zipNames(t, h.storage.uploads[key]))

	job := h.repo.jobs[msg.JobID]
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 4, job.SampleCount)
	assert.Equal(t, 12, job.FramesDecoded)
	assert.Equal(t, key, job.ResultKey)
	assert.Nil(t, job.QualityFactor)

	require.Len(t, h.pub.statuses, 1)
	assert.Equal(t, entity.JobStatusCompleted, h.pub.statuses[0].Status)
	assert.Empty(t, h.dlq.reasons)
}

func TestProcessTraceJobUnreadableVideoGoesToDLQ(t *testing.T) {
	opener := &testutil.FakeOpener{Err: errors.New("moov atom not found")}
	h := newJobHarness(t, opener, 3)

	msg := entity.TraceRequestMessage{JobID: uuid.New(), UserID: "u", VideoKey: "u/broken.mp4", UserEmail: "u@example.com"}
	err := h.uc.Execute(context.Background(), requestBody(t, msg))
	require.NoError(t, err, "permanent failures must not be redelivered")

	require.Len(t, h.dlq.reasons, 1)
	assert.Contains(t, h.dlq.reasons[0], "extract_trace")
	assert.Equal(t, []string{"u@example.com"}, h.notifier.emails)
	assert.Equal(t, entity.JobStatusFailed, h.repo.jobs[msg.JobID].Status)
	assert.Empty(t, h.storage.uploads)
}

func TestProcessTraceJobInvalidFrameRateGoesToDLQ(t *testing.T) {
	src := &testutil.FakeSource{VideoInfo: port.VideoInfo{FrameRate: 5}, Frames: []image.Image{square(10)}}
	h := newJobHarness(t, &testutil.FakeOpener{Source: src}, 3)

	msg := entity.TraceRequestMessage{JobID: uuid.New(), UserID: "u", VideoKey: "u/slow.mp4"}
	require.NoError(t, h.uc.Execute(context.Background(), requestBody(t, msg)))

	require.Len(t, h.dlq.reasons, 1)
	assert.Empty(t, h.notifier.emails)
}

func TestProcessTraceJobDownloadFailureIsRetried(t *testing.T) {
	h := newJobHarness(t, &testutil.FakeOpener{}, 3)
	h.storage.downloadErr = errors.New("connection reset")

	msg := entity.TraceRequestMessage{JobID: uuid.New(), UserID: "u", VideoKey: "u/v.mp4"}
	err := h.uc.Execute(context.Background(), requestBody(t, msg))
	var retry *RetryableError
	require.ErrorAs(t, err, &retry)
	assert.Equal(t, 1, retry.RetryAttempt())
	assert.Equal(t, 3, retry.MaxAttempts)
	assert.Contains(t, err.Error(), "attempt 1/3")

	assert.Empty(t, h.dlq.reasons)
	require.Len(t, h.pub.statuses, 1)
	assert.Equal(t, entity.JobStatusFailed, h.pub.statuses[0].Status)
	assert.Equal(t, 1, h.repo.jobs[msg.JobID].Attempt)
}

func TestProcessTraceJobMissingVideoObjectGoesToDLQ(t *testing.T) {
	h := newJobHarness(t, &testutil.FakeOpener{}, 3)
	h.storage.downloadErr = fmt.Errorf("%w: video videos/u/gone.mp4: NoSuchKey", entity.ErrSourceUnavailable)

	msg := entity.TraceRequestMessage{JobID: uuid.New(), UserID: "u", VideoKey: "u/gone.mp4"}
	require.NoError(t, h.uc.Execute(context.Background(), requestBody(t, msg)))

	require.Len(t, h.dlq.reasons, 1)
	assert.Contains(t, h.dlq.reasons[0], "download_video")
	assert.Equal(t, 1, h.repo.jobs[msg.JobID].Attempt)
}

func TestProcessTraceJobLastAttemptGoesToDLQ(t *testing.T) {
	h := newJobHarness(t, &testutil.FakeOpener{}, 1)
	h.storage.downloadErr = errors.New("connection reset")

	msg := entity.TraceRequestMessage{JobID: uuid.New(), UserID: "u", VideoKey: "u/v.mp4", UserEmail: "u@example.com"}
	require.NoError(t, h.uc.Execute(context.Background(), requestBody(t, msg)))

	require.Len(t, h.dlq.reasons, 1)
	assert.Contains(t, h.dlq.reasons[0], "download_video")
	assert.Equal(t, []string{"u@example.com"}, h.notifier.emails)
}

func TestProcessTraceJobMalformedMessage(t *testing.T) {
	h := newJobHarness(t, &testutil.FakeOpener{}, 3)

	require.NoError(t, h.uc.Execute(context.Background(), []byte("{not json")))

	require.Len(t, h.dlq.reasons, 1)
	assert.Contains(t, h.dlq.reasons[0], "unmarshal_error")
	assert.Empty(t, h.repo.jobs)
}

func TestProcessTraceJobSkipsCompletedRedelivery(t *testing.T) {
	h := newJobHarness(t, &testutil.FakeOpener{Err: errors.New("must not open")}, 3)
	job := entity.NewTraceJob("u", "u/v.mp4", 10, 3)
	job.MarkCompleted("u/trace.zip", entity.RunStats{}, nil)
	require.NoError(t, h.repo.Create(context.Background(), job))

	msg := entity.TraceRequestMessage{JobID: job.ID, UserID: "u", VideoKey: "u/v.mp4"}
	require.NoError(t, h.uc.Execute(context.Background(), requestBody(t, msg)))

	assert.Empty(t, h.dlq.reasons)
	assert.Empty(t, h.pub.statuses)
}
