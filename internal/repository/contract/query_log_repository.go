package contract

import (
	"context"

	"policylens-be/internal/entity"
	"policylens-be/internal/repository/specification"
)

type QueryLogRepository interface {
	Create(ctx context.Context, log *entity.QueryLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	CountByIntent(ctx context.Context, specs ...specification.Specification) (map[string]int64, error)
}
