package mapper

import (
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/model"
	"ai-studyquiz-be/pkg/study/essay"
)

type EssayGradingMapper struct{}

func NewEssayGradingMapper() *EssayGradingMapper {
	return &EssayGradingMapper{}
}

func (m *EssayGradingMapper) ToEntity(g *model.EssayGrading) *entity.EssayGrading {
	if g == nil {
		return nil
	}
	var result essay.Result
	fromJSON(g.Result, &result)

	return &entity.EssayGrading{
		Id:            g.Id,
		UserId:        g.UserId,
		DocumentId:    g.DocumentId,
		CorrectAnswer: g.CorrectAnswer,
		UserAnswer:    g.UserAnswer,
		Result:        result,
		CreatedAt:     g.CreatedAt,
	}
}

func (m *EssayGradingMapper) ToModel(g *entity.EssayGrading) *model.EssayGrading {
	if g == nil {
		return nil
	}
	return &model.EssayGrading{
		Id:            g.Id,
		UserId:        g.UserId,
		DocumentId:    g.DocumentId,
		CorrectAnswer: g.CorrectAnswer,
		UserAnswer:    g.UserAnswer,
		Score:         g.Result.Score,
		Grade:         string(g.Result.Grade),
		Degraded:      g.Result.Degraded,
		Result:        toJSON(g.Result),
		CreatedAt:     g.CreatedAt,
	}
}

func (m *EssayGradingMapper) ToEntities(gradings []*model.EssayGrading) []*entity.EssayGrading {
	entities := make([]*entity.EssayGrading, len(gradings))
	for i, g := range gradings {
		entities[i] = m.ToEntity(g)
	}
	return entities
}
