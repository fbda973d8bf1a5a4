package dto

import (
	"time"

	"ai-studyquiz-be/pkg/study/evaluator"
	"ai-studyquiz-be/pkg/study/quiz"

	"github.com/google/uuid"
)

type GenerateQuizRequest struct {
	DocumentText   string `json:"documentText" validate:"required"`
	Type           string `json:"type" validate:"omitempty,oneof=mcq essay structured_essay mixed"`
	NumQuestions   int    `json:"numQuestions" validate:"omitempty,min=1,max=50"`
	CoverAllTopics bool   `json:"coverAllTopics"`
}

type GenerateDocumentQuizRequest struct {
	Type           string `json:"type" validate:"omitempty,oneof=mcq essay structured_essay mixed"`
	NumQuestions   int    `json:"numQuestions" validate:"omitempty,min=1,max=50"`
	CoverAllTopics bool   `json:"coverAllTopics"`
}

type GenerateQuizResponse struct {
	Questions    []quiz.Question `json:"questions"`
	Mode         string          `json:"mode"`
	FallbackUsed bool            `json:"fallbackUsed"`
	TokensUsed   int             `json:"tokensUsed"`
	ChunkCount   int             `json:"chunkCount"`
}

type EvaluateQuizRequest struct {
	Questions []quiz.Question `json:"questions" validate:"required,min=1,dive"`
	Answers   []string        `json:"answers"`
}

type SubmitQuizRequest struct {
	Answers []string `json:"answers" validate:"required"`
}

type RegenerateQuestionResponse struct {
	Index        int           `json:"index"`
	Question     quiz.Question `json:"question"`
	FallbackUsed bool          `json:"fallbackUsed"`
	TokensUsed   int           `json:"tokensUsed"`
}

type ExplainQuestionResponse struct {
	Index       int    `json:"index"`
	Explanation string `json:"explanation"`
	Fallback    bool   `json:"fallback"`
	TokensUsed  int    `json:"tokensUsed"`
}

type QuizAttemptResponse struct {
	Id         uuid.UUID `json:"id"`
	DocumentId uuid.UUID `json:"documentId"`
	evaluator.Summary
	CreatedAt time.Time `json:"createdAt"`
}
