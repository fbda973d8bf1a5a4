package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/mapper"
	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/internal/repository/specification"
	"ai-studyquiz-be/internal/repository/unitofwork"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/events"
	"ai-studyquiz-be/pkg/study/evaluator"
	"ai-studyquiz-be/pkg/study/quiz"
	"ai-studyquiz-be/pkg/study/quizgen"

	"github.com/google/uuid"
)

const quizModule = "QuizService"

type IQuizService interface {
	Generate(ctx context.Context, req *dto.GenerateQuizRequest) (*dto.GenerateQuizResponse, error)
	Evaluate(ctx context.Context, req *dto.EvaluateQuizRequest) (*evaluator.Summary, error)
	GenerateForDocument(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, req *dto.GenerateDocumentQuizRequest) (*dto.GenerateQuizResponse, error)
	RegenerateQuestion(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, index int) (*dto.RegenerateQuestionResponse, error)
	ExplainQuestion(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, index int) (*dto.ExplainQuestionResponse, error)
	Submit(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, req *dto.SubmitQuizRequest) (*dto.QuizAttemptResponse, error)
	ListAttempts(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) ([]*dto.QuizAttemptResponse, error)
}

type quizService struct {
	uowFactory     unitofwork.RepositoryFactory
	generator      *quizgen.Generator
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewQuizService(
	uowFactory unitofwork.RepositoryFactory,
	generator *quizgen.Generator,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IQuizService {
	return &quizService{
		uowFactory:     uowFactory,
		generator:      generator,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *quizService) Generate(ctx context.Context, req *dto.GenerateQuizRequest) (*dto.GenerateQuizResponse, error) {
	t, err := quiz.ParseRequestType(req.Type)
	if err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(ctx, quizgen.Request{
		Text:           req.DocumentText,
		Type:           t,
		NumQuestions:   req.NumQuestions,
		CoverAllTopics: req.CoverAllTopics,
	})
	if err != nil {
		return nil, err
	}
	return toGenerateQuizResponse(res), nil
}

func toGenerateQuizResponse(res *quizgen.Result) *dto.GenerateQuizResponse {
	return &dto.GenerateQuizResponse{
		Questions:    res.Questions,
		Mode:         string(res.Mode),
		FallbackUsed: res.FallbackUsed,
		TokensUsed:   res.TokensUsed,
		ChunkCount:   res.ChunkCount,
	}
}

func (s *quizService) Evaluate(ctx context.Context, req *dto.EvaluateQuizRequest) (*evaluator.Summary, error) {
	for i, q := range req.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, apperr.Validation(fmt.Sprintf("question %d is empty", i))
		}
	}
	summary := evaluator.Score(req.Questions, req.Answers)
	return &summary, nil
}

func (s *quizService) findDocument(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, documentId uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperr.NotFound("document")
	}
	return doc, nil
}

// withQuestions loads a document that already has a generated question set
// and checks index against it.
func (s *quizService) withQuestions(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, documentId uuid.UUID, index int) (*entity.Document, error) {
	doc, err := s.findDocument(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}
	if len(doc.Questions) == 0 {
		return nil, apperr.Validation("document has no generated questions")
	}
	if index < 0 || index >= len(doc.Questions) {
		return nil, apperr.Validation(fmt.Sprintf("question index %d out of range", index))
	}
	return doc, nil
}

// GenerateForDocument replaces the document's question set wholesale.
func (s *quizService) GenerateForDocument(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, req *dto.GenerateDocumentQuizRequest) (*dto.GenerateQuizResponse, error) {
	t, err := quiz.ParseRequestType(req.Type)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findDocument(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(ctx, quizgen.Request{
		Text:           doc.QuizSource(),
		Type:           t,
		NumQuestions:   req.NumQuestions,
		CoverAllTopics: req.CoverAllTopics,
	})
	if err != nil {
		return nil, err
	}

	if err := s.saveQuestions(ctx, uow, doc.Id, res.Questions, &t); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.New(events.QuizGenerated, map[string]interface{}{
			"document_id":    doc.Id,
			"user_id":        userId,
			"question_count": len(res.Questions),
			"mode":           string(res.Mode),
			"fallback_used":  res.FallbackUsed,
			"tokens_used":    res.TokensUsed,
		})
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn(quizModule, "Failed to publish QUIZ_GENERATED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return toGenerateQuizResponse(res), nil
}

func (s *quizService) saveQuestions(ctx context.Context, uow unitofwork.UnitOfWork, documentId uuid.UUID, questions []quiz.Question, t *quiz.RequestType) error {
	fields := map[string]interface{}{
		"questions": mapper.QuestionsJSON(questions),
	}
	if t != nil {
		fields["question_type"] = string(*t)
		fields["questions_generated_at"] = time.Now()
	}
	return uow.DocumentRepository().UpdateFields(ctx, documentId, fields)
}

func (s *quizService) RegenerateQuestion(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, index int) (*dto.RegenerateQuestionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.withQuestions(ctx, uow, userId, documentId, index)
	if err != nil {
		return nil, err
	}

	q, res, err := s.generator.RegenerateOne(ctx, doc.QuizSource(), doc.QuestionType, doc.Questions, index)
	if err != nil {
		return nil, err
	}

	questions := make([]quiz.Question, len(doc.Questions))
	copy(questions, doc.Questions)
	questions[index] = q
	if err := s.saveQuestions(ctx, uow, doc.Id, questions, nil); err != nil {
		return nil, err
	}

	return &dto.RegenerateQuestionResponse{
		Index:        index,
		Question:     q,
		FallbackUsed: res.FallbackUsed,
		TokensUsed:   res.TokensUsed,
	}, nil
}

func (s *quizService) ExplainQuestion(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, index int) (*dto.ExplainQuestionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.withQuestions(ctx, uow, userId, documentId, index)
	if err != nil {
		return nil, err
	}

	explanation := s.generator.Explain(ctx, doc.Questions[index], doc.QuizSource())

	questions := make([]quiz.Question, len(doc.Questions))
	copy(questions, doc.Questions)
	questions[index].Explanation = explanation.Text
	if err := s.saveQuestions(ctx, uow, doc.Id, questions, nil); err != nil {
		return nil, err
	}

	return &dto.ExplainQuestionResponse{
		Index:       index,
		Explanation: explanation.Text,
		Fallback:    explanation.Fallback,
		TokensUsed:  explanation.TokensUsed,
	}, nil
}

// Submit scores answers against the document's current question set and
// stores the attempt with frozen question snapshots.
func (s *quizService) Submit(ctx context.Context, userId uuid.UUID, documentId uuid.UUID, req *dto.SubmitQuizRequest) (*dto.QuizAttemptResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findDocument(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}
	if len(doc.Questions) == 0 {
		return nil, apperr.Validation("document has no generated questions")
	}

	summary := evaluator.Score(doc.Questions, req.Answers)
	attempt := entity.QuizAttempt{
		Id:         uuid.New(),
		UserId:     userId,
		DocumentId: doc.Id,
		Total:      summary.Total,
		Correct:    summary.Correct,
		Incorrect:  summary.Incorrect,
		Percentage: summary.Percentage,
		Results:    summary.Results,
		CreatedAt:  time.Now(),
	}
	if err := uow.QuizAttemptRepository().Create(ctx, &attempt); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.New(events.QuizSubmitted, map[string]interface{}{
			"document_id": doc.Id,
			"user_id":     userId,
			"attempt_id":  attempt.Id,
			"percentage":  attempt.Percentage,
		})
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn(quizModule, "Failed to publish QUIZ_SUBMITTED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return toQuizAttemptResponse(&attempt), nil
}

func (s *quizService) ListAttempts(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) ([]*dto.QuizAttemptResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findDocument(ctx, uow, userId, documentId); err != nil {
		return nil, err
	}

	attempts, err := uow.QuizAttemptRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: documentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.QuizAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		res = append(res, toQuizAttemptResponse(a))
	}
	return res, nil
}

func toQuizAttemptResponse(a *entity.QuizAttempt) *dto.QuizAttemptResponse {
	return &dto.QuizAttemptResponse{
		Id:         a.Id,
		DocumentId: a.DocumentId,
		Summary: evaluator.Summary{
			Total:      a.Total,
			Correct:    a.Correct,
			Incorrect:  a.Incorrect,
			Percentage: a.Percentage,
			Results:    a.Results,
		},
		CreatedAt: a.CreatedAt,
	}
}
