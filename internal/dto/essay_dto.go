package dto

import (
	"time"

	"ai-studyquiz-be/pkg/study/essay"

	"github.com/google/uuid"
)

type GradeEssayRequest struct {
	CorrectAnswer string     `json:"correctAnswer" validate:"required"`
	UserAnswer    string     `json:"userAnswer" validate:"required"`
	DocumentId    *uuid.UUID `json:"documentId"`
}

type EssayGradingResponse struct {
	Id         uuid.UUID  `json:"id"`
	DocumentId *uuid.UUID `json:"documentId,omitempty"`
	essay.Result
	CreatedAt time.Time `json:"createdAt"`
}
