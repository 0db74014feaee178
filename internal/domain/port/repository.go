package port

import (
	"context"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.TraceJob) error
	Update(ctx context.Context, job *entity.TraceJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TraceJob, error)
}
