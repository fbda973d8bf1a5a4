package mapper

import (
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/model"
	"ai-studyquiz-be/pkg/study/evaluator"
)

type QuizAttemptMapper struct{}

func NewQuizAttemptMapper() *QuizAttemptMapper {
	return &QuizAttemptMapper{}
}

func (m *QuizAttemptMapper) ToEntity(a *model.QuizAttempt) *entity.QuizAttempt {
	if a == nil {
		return nil
	}
	var results []evaluator.Result
	fromJSON(a.Results, &results)

	return &entity.QuizAttempt{
		Id:         a.Id,
		UserId:     a.UserId,
		DocumentId: a.DocumentId,
		Total:      a.Total,
		Correct:    a.Correct,
		Incorrect:  a.Incorrect,
		Percentage: a.Percentage,
		Results:    results,
		CreatedAt:  a.CreatedAt,
	}
}

func (m *QuizAttemptMapper) ToModel(a *entity.QuizAttempt) *model.QuizAttempt {
	if a == nil {
		return nil
	}
	results := a.Results
	if results == nil {
		results = []evaluator.Result{}
	}
	return &model.QuizAttempt{
		Id:         a.Id,
		UserId:     a.UserId,
		DocumentId: a.DocumentId,
		Total:      a.Total,
		Correct:    a.Correct,
		Incorrect:  a.Incorrect,
		Percentage: a.Percentage,
		Results:    toJSON(results),
		CreatedAt:  a.CreatedAt,
	}
}

func (m *QuizAttemptMapper) ToEntities(attempts []*model.QuizAttempt) []*entity.QuizAttempt {
	entities := make([]*entity.QuizAttempt, len(attempts))
	for i, a := range attempts {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
