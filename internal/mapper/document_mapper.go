package mapper

import (
	"time"

	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/model"
	"ai-studyquiz-be/pkg/study/quiz"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var questions []quiz.Question
	fromJSON(d.Questions, &questions)

	return &entity.Document{
		Id:                   d.Id,
		UserId:               d.UserId,
		Title:                d.Title,
		SourceText:           d.SourceText,
		CondensedText:        d.CondensedText,
		CondensationStatus:   entity.CondensationStatus(d.CondensationStatus),
		CondensationStrategy: d.CondensationStrategy,
		CondensationAttempts: d.CondensationAttempts,
		CondensationError:    d.CondensationError,
		CondensedAt:          d.CondensedAt,
		Summary:              d.Summary,
		Questions:            questions,
		QuestionType:         quiz.RequestType(d.QuestionType),
		QuestionsGeneratedAt: d.QuestionsGeneratedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            updatedAt,
		DeletedAt:            deletedAt,
		IsDeleted:            d.DeletedAt.Valid,
		SourceLength:         d.SourceLength,
		CondensedLength:      d.CondensedLength,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	status := d.CondensationStatus
	if status == "" {
		status = entity.CondensationPending
	}

	m2 := &model.Document{
		Id:                   d.Id,
		UserId:               d.UserId,
		Title:                d.Title,
		SourceText:           d.SourceText,
		CondensedText:        d.CondensedText,
		CondensationStatus:   string(status),
		CondensationStrategy: d.CondensationStrategy,
		CondensationAttempts: d.CondensationAttempts,
		CondensationError:    d.CondensationError,
		CondensedAt:          d.CondensedAt,
		Summary:              d.Summary,
		QuestionType:         string(d.QuestionType),
		QuestionsGeneratedAt: d.QuestionsGeneratedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            updatedAt,
		DeletedAt:            deletedAt,
	}
	if d.Questions != nil {
		m2.Questions = toJSON(d.Questions)
	}
	return m2
}

func (m *DocumentMapper) ToEntities(documents []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(documents))
	for i, d := range documents {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) ToModels(documents []*entity.Document) []*model.Document {
	models := make([]*model.Document, len(documents))
	for i, d := range documents {
		models[i] = m.ToModel(d)
	}
	return models
}

// QuestionsJSON is the jsonb value of a question set, for per-field updates.
func QuestionsJSON(questions []quiz.Question) datatypes.JSON {
	if questions == nil {
		questions = []quiz.Question{}
	}
	return toJSON(questions)
}
