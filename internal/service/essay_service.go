package service

import (
	"context"
	"time"

	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/internal/repository/specification"
	"ai-studyquiz-be/internal/repository/unitofwork"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/events"
	"ai-studyquiz-be/pkg/study/essay"

	"github.com/google/uuid"
)

type IEssayService interface {
	Grade(ctx context.Context, userId uuid.UUID, req *dto.GradeEssayRequest) (*dto.EssayGradingResponse, error)
	ListGradings(ctx context.Context, userId uuid.UUID, documentId *uuid.UUID) ([]*dto.EssayGradingResponse, error)
}

type essayService struct {
	uowFactory     unitofwork.RepositoryFactory
	grader         *essay.Grader
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewEssayService(
	uowFactory unitofwork.RepositoryFactory,
	grader *essay.Grader,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IEssayService {
	return &essayService{
		uowFactory:     uowFactory,
		grader:         grader,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *essayService) Grade(ctx context.Context, userId uuid.UUID, req *dto.GradeEssayRequest) (*dto.EssayGradingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if req.DocumentId != nil {
		doc, err := uow.DocumentRepository().FindOne(ctx,
			specification.ByID{ID: *req.DocumentId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, apperr.NotFound("document")
		}
	}

	result, err := s.grader.Grade(ctx, req.CorrectAnswer, req.UserAnswer)
	if err != nil {
		return nil, err
	}

	grading := entity.EssayGrading{
		Id:            uuid.New(),
		UserId:        userId,
		DocumentId:    req.DocumentId,
		CorrectAnswer: req.CorrectAnswer,
		UserAnswer:    req.UserAnswer,
		Result:        *result,
		CreatedAt:     time.Now(),
	}
	if err := uow.EssayGradingRepository().Create(ctx, &grading); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		data := map[string]interface{}{
			"grading_id": grading.Id,
			"user_id":    userId,
			"score":      result.Score,
			"grade":      string(result.Grade),
			"degraded":   result.Degraded,
		}
		if req.DocumentId != nil {
			data["document_id"] = *req.DocumentId
		}
		if err := s.eventPublisher.Publish(ctx, events.New(events.EssayGraded, data)); err != nil {
			s.logger.Warn("EssayService", "Failed to publish ESSAY_GRADED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return toEssayGradingResponse(&grading), nil
}

func (s *essayService) ListGradings(ctx context.Context, userId uuid.UUID, documentId *uuid.UUID) ([]*dto.EssayGradingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	specs := []specification.Specification{specification.UserOwnedBy{UserID: userId}}
	if documentId != nil {
		specs = append(specs, specification.ByDocumentID{DocumentID: *documentId})
	}

	gradings, err := uow.EssayGradingRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.EssayGradingResponse, 0, len(gradings))
	for _, g := range gradings {
		res = append(res, toEssayGradingResponse(g))
	}
	return res, nil
}

func toEssayGradingResponse(g *entity.EssayGrading) *dto.EssayGradingResponse {
	return &dto.EssayGradingResponse{
		Id:         g.Id,
		DocumentId: g.DocumentId,
		Result:     g.Result,
		CreatedAt:  g.CreatedAt,
	}
}
