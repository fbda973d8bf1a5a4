package contract

import (
	"context"

	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/repository/specification"
)

type EssayGradingRepository interface {
	Create(ctx context.Context, grading *entity.EssayGrading) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EssayGrading, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
