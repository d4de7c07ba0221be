package unitofwork

import (
	"context"

	"policylens-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	QueryLogRepository() contract.QueryLogRepository
}
