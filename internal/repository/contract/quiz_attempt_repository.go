package contract

import (
	"context"

	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/repository/specification"

	"github.com/google/uuid"
)

type QuizAttemptRepository interface {
	Create(ctx context.Context, attempt *entity.QuizAttempt) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuizAttempt, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuizAttempt, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
}
