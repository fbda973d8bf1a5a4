package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title string `json:"title" validate:"required,max=255"`
	Text  string `json:"text" validate:"required"`
}

type CreateDocumentResponse struct {
	Id                 uuid.UUID `json:"id"`
	CondensationStatus string    `json:"condensation_status"`
}

type ShowDocumentResponse struct {
	Id                   uuid.UUID  `json:"id"`
	Title                string     `json:"title"`
	SourceLength         int        `json:"source_length"`
	CondensedLength      int        `json:"condensed_length"`
	CondensationStatus   string     `json:"condensation_status"`
	CondensationStrategy string     `json:"condensation_strategy,omitempty"`
	QuestionCount        int        `json:"question_count"`
	QuestionType         string     `json:"question_type,omitempty"`
	QuestionsGeneratedAt *time.Time `json:"questions_generated_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at"`
}

type CondensationStatusResponse struct {
	Id          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	Strategy    string     `json:"strategy,omitempty"`
	Attempts    int        `json:"attempts"`
	Error       string     `json:"error,omitempty"`
	Ratio       float64    `json:"ratio,omitempty"`
	CondensedAt *time.Time `json:"condensed_at,omitempty"`
}

type DocumentSummaryResponse struct {
	Id         uuid.UUID `json:"id"`
	Summary    string    `json:"summary"`
	Fallback   bool      `json:"fallback"`
	Cached     bool      `json:"cached"`
	TokensUsed int       `json:"tokens_used"`
}

// PublishCondenseDocumentMessage is the background job payload.
type PublishCondenseDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
	Force      bool      `json:"force,omitempty"`
}
