package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/internal/repository/specification"
	"ai-studyquiz-be/internal/repository/unitofwork"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/study/summarizer"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ShowDocumentResponse, error)
	CondensationStatus(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.CondensationStatusResponse, error)
	RetryCondensation(ctx context.Context, userId uuid.UUID, id uuid.UUID, force bool) (*dto.CondensationStatusResponse, error)
	Summary(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentSummaryResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	summarizer       *summarizer.Summarizer
	logger           logger.ILogger
	// sources shorter than this are quizzed as-is
	condenseMinChars int
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	summarizer *summarizer.Summarizer,
	log logger.ILogger,
	condenseMinChars int,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		summarizer:       summarizer,
		logger:           log,
		condenseMinChars: condenseMinChars,
	}
}

func (s *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.Validation("text is empty")
	}

	status := entity.CondensationPending
	if utf8.RuneCountInString(req.Text) < s.condenseMinChars {
		status = entity.CondensationSkipped
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc := entity.Document{
		Id:                 uuid.New(),
		UserId:             userId,
		Title:              req.Title,
		SourceText:         req.Text,
		CondensationStatus: status,
		CreatedAt:          time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}

	if status == entity.CondensationPending {
		if err := s.enqueue(ctx, doc.Id, false); err != nil {
			// failed documents can be queued again through the retry endpoint
			s.logger.Error("DocumentService", "Failed to queue condensation", map[string]interface{}{
				"document_id": doc.Id.String(),
				"error":       err.Error(),
			})
			doc.CondensationStatus = entity.CondensationFailed
			doc.CondensationError = "queue unavailable: " + err.Error()
			if markErr := uow.DocumentRepository().UpdateFields(ctx, doc.Id, map[string]interface{}{
				"condensation_status": string(doc.CondensationStatus),
				"condensation_error":  doc.CondensationError,
			}); markErr != nil {
				return nil, markErr
			}
		}
	}

	return &dto.CreateDocumentResponse{
		Id:                 doc.Id,
		CondensationStatus: string(doc.CondensationStatus),
	}, nil
}

func (s *documentService) enqueue(ctx context.Context, documentId uuid.UUID, force bool) error {
	msgJson, err := json.Marshal(dto.PublishCondenseDocumentMessage{DocumentId: documentId, Force: force})
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, msgJson)
}

func (s *documentService) find(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
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

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	doc, err := s.find(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return toShowDocumentResponse(doc), nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.WithoutSourceText{},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, toShowDocumentResponse(doc))
	}
	return res, nil
}

func toShowDocumentResponse(doc *entity.Document) *dto.ShowDocumentResponse {
	return &dto.ShowDocumentResponse{
		Id:                   doc.Id,
		Title:                doc.Title,
		SourceLength:         doc.SourceChars(),
		CondensedLength:      doc.CondensedChars(),
		CondensationStatus:   string(doc.CondensationStatus),
		CondensationStrategy: doc.CondensationStrategy,
		QuestionCount:        len(doc.Questions),
		QuestionType:         string(doc.QuestionType),
		QuestionsGeneratedAt: doc.QuestionsGeneratedAt,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
}

func (s *documentService) CondensationStatus(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.CondensationStatusResponse, error) {
	doc, err := s.find(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return toCondensationStatusResponse(doc), nil
}

func toCondensationStatusResponse(doc *entity.Document) *dto.CondensationStatusResponse {
	res := &dto.CondensationStatusResponse{
		Id:          doc.Id,
		Status:      string(doc.CondensationStatus),
		Strategy:    doc.CondensationStrategy,
		Attempts:    doc.CondensationAttempts,
		Error:       doc.CondensationError,
		CondensedAt: doc.CondensedAt,
	}
	if doc.CondensedText != nil {
		if n := utf8.RuneCountInString(doc.SourceText); n > 0 {
			res.Ratio = float64(utf8.RuneCountInString(*doc.CondensedText)) / float64(n)
		}
	}
	return res
}

// RetryCondensation queues the job again for pending or failed documents. A
// condensed document is left alone unless force is set, which regenerates the
// condensed text. Skipped documents are too short to condense.
func (s *documentService) RetryCondensation(ctx context.Context, userId uuid.UUID, id uuid.UUID, force bool) (*dto.CondensationStatusResponse, error) {
	doc, err := s.find(ctx, userId, id)
	if err != nil {
		return nil, err
	}

	switch doc.CondensationStatus {
	case entity.CondensationSkipped:
		return toCondensationStatusResponse(doc), nil
	case entity.CondensationReady:
		if !force {
			return toCondensationStatusResponse(doc), nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateFields(ctx, doc.Id, map[string]interface{}{
		"condensation_status": string(entity.CondensationPending),
		"condensation_error":  "",
	}); err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, doc.Id, force); err != nil {
		return nil, err
	}

	doc.CondensationStatus = entity.CondensationPending
	doc.CondensationError = ""
	return toCondensationStatusResponse(doc), nil
}

// Summary is generated once and cached on the document. Fallback summaries
// are returned but not cached, so a later call can still get the AI version.
func (s *documentService) Summary(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentSummaryResponse, error) {
	doc, err := s.find(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	if doc.Summary != nil && *doc.Summary != "" {
		return &dto.DocumentSummaryResponse{Id: doc.Id, Summary: *doc.Summary, Cached: true}, nil
	}

	summary := s.summarizer.Summarize(ctx, doc.QuizSource())
	if !summary.Fallback {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		if err := uow.DocumentRepository().UpdateFields(ctx, doc.Id, map[string]interface{}{"summary": summary.Text}); err != nil {
			s.logger.Warn("DocumentService", "Failed to cache summary", map[string]interface{}{
				"document_id": doc.Id.String(),
				"error":       err.Error(),
			})
		}
	}

	return &dto.DocumentSummaryResponse{
		Id:         doc.Id,
		Summary:    summary.Text,
		Fallback:   summary.Fallback,
		TokensUsed: summary.TokensUsed,
	}, nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	doc, err := s.find(ctx, userId, id)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.QuizAttemptRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
		return err
	}
	return uow.Commit()
}
