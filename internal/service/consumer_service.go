package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/internal/repository/specification"
	"ai-studyquiz-be/internal/repository/unitofwork"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/events"
	"ai-studyquiz-be/pkg/study/condenser"
	"ai-studyquiz-be/pkg/study/fallback"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const consumerModule = "CondensationJob"

type IConsumerService interface {
	// Consume subscribes to the job topic and requeues documents still pending
	// from before the subscription existed.
	Consume(ctx context.Context) error
	RequeuePending(ctx context.Context) (int, error)
	// Process runs one condensation job synchronously.
	Process(ctx context.Context, job dto.PublishCondenseDocumentMessage) error
}

type ConsumerConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
}

type consumerService struct {
	subscriber     message.Subscriber
	jobs           IPublisherService
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	condenser      *condenser.Condenser
	quota          fallback.State
	eventPublisher EventPublisher
	logger         logger.ILogger
	cfg            ConsumerConfig
}

func NewConsumerService(
	subscriber message.Subscriber,
	jobs IPublisherService,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	condenser *condenser.Condenser,
	quota fallback.State,
	eventPublisher EventPublisher,
	log logger.ILogger,
	cfg ConsumerConfig,
) IConsumerService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	return &consumerService{
		subscriber:     subscriber,
		jobs:           jobs,
		topicName:      topicName,
		uowFactory:     uowFactory,
		condenser:      condenser,
		quota:          quota,
		eventPublisher: eventPublisher,
		logger:         log,
		cfg:            cfg,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	if _, err := cs.RequeuePending(ctx); err != nil {
		cs.logger.Error(consumerModule, "Failed to requeue pending documents", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// RequeuePending publishes a job for every pending document. The queue lives
// in process memory, so jobs queued before a restart are gone. A document
// that is queued twice is condensed once.
func (cs *consumerService) RequeuePending(ctx context.Context) (int, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByCondensationStatus{Status: string(entity.CondensationPending)},
		specification.WithoutSourceText{},
	)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, doc := range docs {
		payload, err := json.Marshal(dto.PublishCondenseDocumentMessage{DocumentId: doc.Id})
		if err != nil {
			return queued, err
		}
		if err := cs.jobs.Publish(ctx, payload); err != nil {
			return queued, err
		}
		queued++
	}

	if queued > 0 {
		cs.logger.Info(consumerModule, "Requeued pending documents", map[string]interface{}{"count": queued})
	}
	return queued, nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishCondenseDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	// Failures are recorded on the document and retried through the API,
	// so every message is acked.
	if err := cs.Process(ctx, payload); err != nil {
		cs.logger.Error(consumerModule, "Condensation job failed", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
	}
	msg.Ack()
}

func (cs *consumerService) Process(ctx context.Context, job dto.PublishCondenseDocumentMessage) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DocumentRepository()

	doc, err := repo.FindOne(ctx, specification.ByID{ID: job.DocumentId})
	if err != nil {
		return err
	}
	if doc == nil {
		cs.logger.Warn(consumerModule, "Document no longer exists", map[string]interface{}{"document_id": job.DocumentId.String()})
		return nil
	}

	// condensed text is generated once per document
	if doc.HasCondensedText() && !job.Force {
		if doc.CondensationStatus != entity.CondensationReady {
			return repo.UpdateFields(ctx, doc.Id, map[string]interface{}{
				"condensation_status": string(entity.CondensationReady),
			})
		}
		return nil
	}

	cs.logger.Info(consumerModule, "Condensing document", map[string]interface{}{
		"document_id":   doc.Id.String(),
		"source_length": len(doc.SourceText),
	})

	result, attempts, condenseErr := cs.condense(ctx, doc.SourceText)
	fields := map[string]interface{}{
		"condensation_attempts": doc.CondensationAttempts + attempts,
	}
	if result == nil {
		fields["condensation_status"] = string(entity.CondensationFailed)
		fields["condensation_error"] = condenseErr.Error()
		return repo.UpdateFields(ctx, doc.Id, fields)
	}

	now := time.Now()
	fields["condensed_text"] = result.Text
	fields["condensation_status"] = string(entity.CondensationReady)
	fields["condensation_strategy"] = string(result.Strategy)
	fields["condensed_at"] = now
	fields["condensation_error"] = ""
	if condenseErr != nil {
		fields["condensation_error"] = condenseErr.Error()
	}

	if err := repo.UpdateFields(ctx, doc.Id, fields); err != nil {
		if markErr := repo.UpdateFields(ctx, doc.Id, map[string]interface{}{
			"condensation_status": string(entity.CondensationFailed),
			"condensation_error":  err.Error(),
		}); markErr != nil {
			cs.logger.Error(consumerModule, "Failed to mark document as failed", map[string]interface{}{"error": markErr.Error()})
		}
		return err
	}

	cs.logger.Info(consumerModule, "Document condensed", map[string]interface{}{
		"document_id": doc.Id.String(),
		"strategy":    string(result.Strategy),
		"ratio":       result.Ratio,
		"attempts":    attempts,
		"tokens":      result.TokensUsed,
	})
	cs.publish(ctx, doc.Id, doc.UserId, result)
	return nil
}

// condense retries AI condensation with exponential backoff and falls back to
// sentence-aligned truncation once attempts run out or the quota flag is set.
func (cs *consumerService) condense(ctx context.Context, text string) (*condenser.Result, int, error) {
	attempts := 0
	var result *condenser.Result

	backoff := retry.WithMaxRetries(uint64(cs.cfg.MaxAttempts-1), retry.NewExponential(cs.cfg.BackoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		res, err := cs.condenser.TryCondense(ctx, text)
		if err != nil {
			if cs.quota.IsExceeded(ctx) {
				return err
			}
			if apperr.IsAIFailure(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = res
		return nil
	})
	if err == nil {
		return result, attempts, nil
	}
	if ctx.Err() != nil {
		return nil, attempts, err
	}

	cs.logger.Warn(consumerModule, "AI condensation unavailable, truncating", map[string]interface{}{
		"attempts": attempts,
		"error":    err.Error(),
	})
	return cs.condenser.Truncated(text), attempts, err
}

func (cs *consumerService) publish(ctx context.Context, documentId, userId uuid.UUID, result *condenser.Result) {
	if cs.eventPublisher == nil {
		return
	}
	evt := events.New(events.DocumentCondensed, map[string]interface{}{
		"document_id": documentId,
		"user_id":     userId,
		"strategy":    string(result.Strategy),
		"ratio":       result.Ratio,
		"tokens_used": result.TokensUsed,
	})
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn(consumerModule, "Failed to publish DOCUMENT_CONDENSED event", map[string]interface{}{"error": err.Error()})
	}
}
