package implementation

import (
	"context"

	"policylens-be/internal/entity"
	"policylens-be/internal/mapper"
	"policylens-be/internal/model"
	"policylens-be/internal/repository/contract"
	"policylens-be/internal/repository/specification"

	"gorm.io/gorm"
)

type QueryLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueryLogMapper
}

func NewQueryLogRepository(db *gorm.DB) contract.QueryLogRepository {
	return &QueryLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueryLogMapper(),
	}
}

func (r *QueryLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QueryLogRepositoryImpl) Create(ctx context.Context, log *entity.QueryLog) error {
	m := r.mapper.ToModel(log)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*log = *r.mapper.ToEntity(m)
	return nil
}

func (r *QueryLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryLog, error) {
	var models []*model.QueryLog
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QueryLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QueryLog{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QueryLogRepositoryImpl) CountByIntent(ctx context.Context, specs ...specification.Specification) (map[string]int64, error) {
	var rows []struct {
		Intent string
		Total  int64
	}
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QueryLog{}), specs...)
	if err := query.Select("intent, COUNT(*) AS total").Group("intent").Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Intent] = row.Total
	}
	return result, nil
}
