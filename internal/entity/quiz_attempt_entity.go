package entity

import (
	"time"

	"ai-studyquiz-be/pkg/study/evaluator"

	"github.com/google/uuid"
)

type QuizAttempt struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	DocumentId uuid.UUID
	Total      int
	Correct    int
	Incorrect  int
	Percentage int
	Results    []evaluator.Result
	CreatedAt  time.Time
}
