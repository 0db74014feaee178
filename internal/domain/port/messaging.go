package port

import (
	"context"

	"github.com/DFP1305/pendulo/internal/domain/entity"
)

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg entity.TraceStatusMessage) error
}

// DLQPublisher parks a request that can never succeed, keeping the raw body intact.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, body []byte, reason string) error
}
