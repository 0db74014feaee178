package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	base := 500 * time.Millisecond

	assert.Equal(t, 500*time.Millisecond, backoff(base, 1))
	assert.Equal(t, time.Second, backoff(base, 2))
	assert.Equal(t, 4*time.Second, backoff(base, 4))
	assert.Equal(t, maxBackoff, backoff(base, 20))
}

func TestAttemptFromHeaders(t *testing.T) {
	assert.Equal(t, 1, attemptFromHeaders(nil))
	assert.Equal(t, 1, attemptFromHeaders(amqp.Table{"other": "x"}))
	assert.Equal(t, 3, attemptFromHeaders(amqp.Table{
		"x-death": []interface{}{amqp.Table{}, amqp.Table{}, amqp.Table{}},
	}))
}

type attemptErr int

func (e attemptErr) Error() string     { return fmt.Sprintf("attempt %d failed", int(e)) }
func (e attemptErr) RetryAttempt() int { return int(e) }

func TestAttemptOfPrefersHandlerError(t *testing.T) {
	headers := amqp.Table{"x-death": []interface{}{amqp.Table{}}}

	assert.Equal(t, 4, attemptOf(fmt.Errorf("wrapped: %w", attemptErr(4)), headers))
	assert.Equal(t, 1, attemptOf(errors.New("plain"), headers))
	assert.Equal(t, 1, attemptOf(attemptErr(0), nil))
}

func TestHandleRecoversPanic(t *testing.T) {
	c := &Consumer{handler: func(context.Context, []byte) error { panic("decoder crashed") }}

	err := c.handle(context.Background(), []byte("{}"))
	assert.ErrorContains(t, err, "decoder crashed")
}
