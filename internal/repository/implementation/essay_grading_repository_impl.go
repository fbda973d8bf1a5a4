package implementation

import (
	"context"

	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/mapper"
	"ai-studyquiz-be/internal/model"
	"ai-studyquiz-be/internal/repository/contract"
	"ai-studyquiz-be/internal/repository/scope"
	"ai-studyquiz-be/internal/repository/specification"

	"gorm.io/gorm"
)

type EssayGradingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EssayGradingMapper
}

func NewEssayGradingRepository(db *gorm.DB) contract.EssayGradingRepository {
	return &EssayGradingRepositoryImpl{
		db:     db,
		mapper: mapper.NewEssayGradingMapper(),
	}
}

func (r *EssayGradingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EssayGradingRepositoryImpl) Create(ctx context.Context, grading *entity.EssayGrading) error {
	m := r.mapper.ToModel(grading)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*grading = *r.mapper.ToEntity(m)
	return nil
}

func (r *EssayGradingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EssayGrading, error) {
	var models []*model.EssayGrading
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedDesc), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *EssayGradingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.EssayGrading{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
