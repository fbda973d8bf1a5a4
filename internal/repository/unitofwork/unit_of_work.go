package unitofwork

import (
	"context"

	"ai-studyquiz-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	QuizAttemptRepository() contract.QuizAttemptRepository
	EssayGradingRepository() contract.EssayGradingRepository
}
