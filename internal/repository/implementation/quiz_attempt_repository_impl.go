package implementation

import (
	"context"
	"errors"

	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/mapper"
	"ai-studyquiz-be/internal/model"
	"ai-studyquiz-be/internal/repository/contract"
	"ai-studyquiz-be/internal/repository/scope"
	"ai-studyquiz-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizAttemptRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuizAttemptMapper
}

func NewQuizAttemptRepository(db *gorm.DB) contract.QuizAttemptRepository {
	return &QuizAttemptRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuizAttemptMapper(),
	}
}

func (r *QuizAttemptRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QuizAttemptRepositoryImpl) Create(ctx context.Context, attempt *entity.QuizAttempt) error {
	m := r.mapper.ToModel(attempt)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*attempt = *r.mapper.ToEntity(m)
	return nil
}

func (r *QuizAttemptRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuizAttempt, error) {
	var m model.QuizAttempt
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// FindAll returns newest attempts first.
func (r *QuizAttemptRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuizAttempt, error) {
	var models []*model.QuizAttempt
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedDesc), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QuizAttemptRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QuizAttempt{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QuizAttemptRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.QuizAttempt{}).Error
}
