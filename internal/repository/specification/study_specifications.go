package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByCondensationStatus struct {
	Status string
}

func (s ByCondensationStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("condensation_status = ?", s.Status)
}

// WithoutSourceText skips the large text columns for list views and the
// pending-job sweep. Their lengths are selected instead.
type WithoutSourceText struct{}

const documentListColumns = "id, user_id, title, condensation_status, condensation_strategy, " +
	"condensation_attempts, condensation_error, condensed_at, questions, question_type, " +
	"questions_generated_at, created_at, updated_at, deleted_at, " +
	"char_length(source_text) AS source_length, " +
	"coalesce(char_length(condensed_text), 0) AS condensed_length"

func (s WithoutSourceText) Apply(db *gorm.DB) *gorm.DB {
	return db.Select(documentListColumns)
}
