package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyFailure(t *testing.T) {
	n := NewSMTPNotifier("mail.local", 2525, "noreply@pendulo.local", zap.NewNop())

	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, n.NotifyFailure(context.Background(), "lab@uni.edu", "job-1", "lab/run.mp4", "video source unavailable"))

	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"lab@uni.edu"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Pendulum trace failed [Job job-1]")
	assert.Contains(t, gotMsg, "Video: lab/run.mp4")
	assert.Contains(t, gotMsg, "Error: video source unavailable")
}

func TestNotifyFailureSendError(t *testing.T) {
	n := NewSMTPNotifier("mail.local", 2525, "noreply@pendulo.local", zap.NewNop())
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }

	err := n.NotifyFailure(context.Background(), "lab@uni.edu", "job-1", "k", "e")
	assert.ErrorContains(t, err, "connection refused")
}
