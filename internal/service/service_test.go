package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/events"
	"ai-studyquiz-be/pkg/llm/llmtest"
	"ai-studyquiz-be/pkg/study/condenser"
	"ai-studyquiz-be/pkg/study/essay"
	"ai-studyquiz-be/pkg/study/fallback"
	"ai-studyquiz-be/pkg/study/importance"
	"ai-studyquiz-be/pkg/study/quiz"
	"ai-studyquiz-be/pkg/study/quizgen"
	"ai-studyquiz-be/pkg/study/summarizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var topics = []string{
	"photosynthesis", "respiration", "transcription", "translation", "replication",
	"glycolysis", "fermentation", "homeostasis", "metabolism", "osmoregulation",
}

func studyText() string {
	var b strings.Builder
	for i, topic := range topics {
		fmt.Fprintf(&b, "Paragraph %d describes how %s shapes cellular biology in living organisms. ", i, topic)
	}
	return b.String()
}

type pipeline struct {
	store    *store
	provider *llmtest.Provider
	state    *fallback.MemoryState
	events   *recordingEvents
	jobs     *recordingPublisher
}

func newPipeline() *pipeline {
	return &pipeline{
		store:    newStore(),
		provider: llmtest.New(),
		state:    fallback.NewMemoryState(time.Minute),
		events:   &recordingEvents{},
		jobs:     &recordingPublisher{},
	}
}

func (p *pipeline) guard() *fallback.Guard {
	return fallback.NewGuard(p.provider, p.state, logger.NewNopLogger())
}

func (p *pipeline) consumer(maxAttempts int) IConsumerService {
	log := logger.NewNopLogger()
	g := p.guard()
	c := condenser.New(g, importance.NewExtractor(g, log, 0), log, condenser.Config{MinGuidedChars: 1 << 20})
	return NewConsumerService(nil, p.jobs, "CONDENSE_DOCUMENT", p.store, c, p.state, p.events, log, ConsumerConfig{
		MaxAttempts: maxAttempts,
		BackoffBase: time.Millisecond,
	})
}

func (p *pipeline) documents(minChars int) IDocumentService {
	log := logger.NewNopLogger()
	return NewDocumentService(p.store, p.jobs, summarizer.New(p.guard(), log, 0), log, minChars)
}

func (p *pipeline) quizzes() IQuizService {
	log := logger.NewNopLogger()
	g := p.guard()
	gen := quizgen.NewGenerator(g, importance.NewExtractor(g, log, 0), log, 0)
	return NewQuizService(p.store, gen, p.events, log)
}

func (p *pipeline) seed(t *testing.T, userId uuid.UUID, status entity.CondensationStatus) *entity.Document {
	t.Helper()
	doc := &entity.Document{
		Id:                 uuid.New(),
		UserId:             userId,
		Title:              "Biology",
		SourceText:         studyText(),
		CondensationStatus: status,
		CreatedAt:          time.Now(),
	}
	require.NoError(t, p.store.NewUnitOfWork(context.Background()).DocumentRepository().Create(context.Background(), doc))
	return doc
}

func TestDocumentService_Create(t *testing.T) {
	p := newPipeline()
	svc := p.documents(200)
	userId := uuid.New()

	short, err := svc.Create(context.Background(), userId, &dto.CreateDocumentRequest{Title: "Short", Text: "Too short to condense."})
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationSkipped), short.CondensationStatus)
	assert.Empty(t, p.jobs.payloads)

	long, err := svc.Create(context.Background(), userId, &dto.CreateDocumentRequest{Title: "Long", Text: studyText()})
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationPending), long.CondensationStatus)
	require.Len(t, p.jobs.payloads, 1)

	var job dto.PublishCondenseDocumentMessage
	require.NoError(t, json.Unmarshal(p.jobs.payloads[0], &job))
	assert.Equal(t, long.Id, job.DocumentId)

	_, err = svc.Create(context.Background(), userId, &dto.CreateDocumentRequest{Title: "Blank", Text: "   "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDocumentService_OwnerOnly(t *testing.T) {
	p := newPipeline()
	doc := p.seed(t, uuid.New(), entity.CondensationPending)

	_, err := p.documents(0).Show(context.Background(), uuid.New(), doc.Id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestConsumerService_CondensesOnce(t *testing.T) {
	p := newPipeline()
	doc := p.seed(t, uuid.New(), entity.CondensationPending)
	p.provider.Default = llmtest.Text("Cells use photosynthesis and respiration.")

	consumer := p.consumer(3)
	require.NoError(t, consumer.Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: doc.Id}))

	stored := p.store.document(doc.Id)
	assert.Equal(t, entity.CondensationReady, stored.CondensationStatus)
	assert.Equal(t, string(condenser.StrategyUnguided), stored.CondensationStrategy)
	assert.Equal(t, 1, stored.CondensationAttempts)
	require.NotNil(t, stored.CondensedText)
	assert.Less(t, len(*stored.CondensedText), len(stored.SourceText))
	assert.Equal(t, *stored.CondensedText, stored.QuizSource())
	assert.Equal(t, []string{events.DocumentCondensed}, p.events.types())

	calls := p.provider.Calls()
	require.NoError(t, consumer.Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: doc.Id}))
	assert.Equal(t, calls, p.provider.Calls())
}

func TestConsumerService_RetriesThenTruncates(t *testing.T) {
	p := newPipeline()
	doc := p.seed(t, uuid.New(), entity.CondensationPending)
	p.provider.Default = llmtest.Fail(errors.New("connection reset by peer"))

	require.NoError(t, p.consumer(3).Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: doc.Id}))

	stored := p.store.document(doc.Id)
	assert.Equal(t, 3, p.provider.Calls())
	assert.Equal(t, 3, stored.CondensationAttempts)
	assert.Equal(t, entity.CondensationReady, stored.CondensationStatus)
	assert.Equal(t, string(condenser.StrategyTruncated), stored.CondensationStrategy)
	assert.NotEmpty(t, stored.CondensationError)
	assert.True(t, stored.HasCondensedText())
}

func TestConsumerService_NoRetryWhileQuotaExceeded(t *testing.T) {
	p := newPipeline()
	doc := p.seed(t, uuid.New(), entity.CondensationPending)
	p.state.MarkExceeded(context.Background(), apperr.CodeRateLimited, "429 Too Many Requests")

	require.NoError(t, p.consumer(5).Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: doc.Id}))

	stored := p.store.document(doc.Id)
	assert.Zero(t, p.provider.Calls())
	assert.Equal(t, 1, stored.CondensationAttempts)
	assert.Equal(t, string(condenser.StrategyTruncated), stored.CondensationStrategy)
}

func TestConsumerService_PersistenceFailure(t *testing.T) {
	p := newPipeline()
	doc := p.seed(t, uuid.New(), entity.CondensationPending)
	p.provider.Default = llmtest.Text("Cells use photosynthesis.")
	p.store.failUpdates = true

	err := p.consumer(1).Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: doc.Id})
	assert.Error(t, err)
	assert.Empty(t, p.events.types())
}

func TestConsumerService_MissingDocument(t *testing.T) {
	p := newPipeline()
	assert.NoError(t, p.consumer(1).Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: uuid.New()}))
}

func TestDocumentService_RetryCondensation(t *testing.T) {
	p := newPipeline()
	userId := uuid.New()
	failed := p.seed(t, userId, entity.CondensationFailed)
	ready := p.seed(t, userId, entity.CondensationReady)
	svc := p.documents(0)

	res, err := svc.RetryCondensation(context.Background(), userId, failed.Id, false)
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationPending), res.Status)
	assert.Len(t, p.jobs.payloads, 1)
	assert.Equal(t, entity.CondensationPending, p.store.document(failed.Id).CondensationStatus)

	res, err = svc.RetryCondensation(context.Background(), userId, ready.Id, false)
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationReady), res.Status)
	assert.Len(t, p.jobs.payloads, 1)

	res, err = svc.RetryCondensation(context.Background(), userId, ready.Id, true)
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationPending), res.Status)
	jobs := p.jobs.jobs(t)
	require.Len(t, jobs, 2)
	assert.False(t, jobs[0].Force)
	assert.Equal(t, dto.PublishCondenseDocumentMessage{DocumentId: ready.Id, Force: true}, jobs[1])
}

func TestDocumentService_RetrySkippedIsNoop(t *testing.T) {
	p := newPipeline()
	userId := uuid.New()
	doc := p.seed(t, userId, entity.CondensationSkipped)

	res, err := p.documents(0).RetryCondensation(context.Background(), userId, doc.Id, true)
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationSkipped), res.Status)
	assert.Empty(t, p.jobs.payloads)
}

func TestDocumentService_CreateWhenQueueDown(t *testing.T) {
	p := newPipeline()
	p.jobs.err = errors.New("topic closed")
	userId := uuid.New()
	svc := p.documents(10)

	res, err := svc.Create(context.Background(), userId, &dto.CreateDocumentRequest{Title: "Long", Text: studyText()})
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationFailed), res.CondensationStatus)

	stored := p.store.document(res.Id)
	require.NotNil(t, stored)
	assert.Equal(t, entity.CondensationFailed, stored.CondensationStatus)
	assert.Contains(t, stored.CondensationError, "topic closed")

	p.jobs.err = nil
	retried, err := svc.RetryCondensation(context.Background(), userId, res.Id, false)
	require.NoError(t, err)
	assert.Equal(t, string(entity.CondensationPending), retried.Status)
	assert.Len(t, p.jobs.payloads, 1)
}

func TestDocumentService_ListReportsLengthsWithoutText(t *testing.T) {
	p := newPipeline()
	userId := uuid.New()
	doc := p.seed(t, userId, entity.CondensationPending)

	list, err := p.documents(0).List(context.Background(), userId)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, doc.Id, list[0].Id)
	assert.Equal(t, len(studyText()), list[0].SourceLength)
	assert.Zero(t, list[0].CondensedLength)
}

func TestConsumerService_RequeuePending(t *testing.T) {
	p := newPipeline()
	pending := p.seed(t, uuid.New(), entity.CondensationPending)
	p.seed(t, uuid.New(), entity.CondensationReady)
	p.seed(t, uuid.New(), entity.CondensationFailed)

	n, err := p.consumer(1).RequeuePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []dto.PublishCondenseDocumentMessage{{DocumentId: pending.Id}}, p.jobs.jobs(t))
}

func TestConsumerService_RequeuePendingPublishError(t *testing.T) {
	p := newPipeline()
	p.seed(t, uuid.New(), entity.CondensationPending)
	p.jobs.err = errors.New("topic closed")

	n, err := p.consumer(1).RequeuePending(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestConsumerService_ForceRecondenses(t *testing.T) {
	p := newPipeline()
	doc := p.seed(t, uuid.New(), entity.CondensationPending)
	p.provider.Default = llmtest.Text("Cells use photosynthesis and respiration.")
	consumer := p.consumer(1)

	require.NoError(t, consumer.Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: doc.Id}))
	calls := p.provider.Calls()

	p.provider.Default = llmtest.Text("Cells make energy.")
	require.NoError(t, consumer.Process(context.Background(), dto.PublishCondenseDocumentMessage{DocumentId: doc.Id, Force: true}))

	stored := p.store.document(doc.Id)
	assert.Greater(t, p.provider.Calls(), calls)
	assert.Equal(t, "Cells make energy.", *stored.CondensedText)
	assert.Equal(t, 2, stored.CondensationAttempts)
}

func TestConsumerService_ConsumeRecoversPendingDocuments(t *testing.T) {
	p := newPipeline()
	doc := p.seed(t, uuid.New(), entity.CondensationPending)
	p.provider.Default = llmtest.Text("Cells use photosynthesis and respiration.")

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()
	jobs := NewPublisherService("CONDENSE_DOCUMENT", pubSub)

	log := logger.NewNopLogger()
	g := p.guard()
	c := condenser.New(g, importance.NewExtractor(g, log, 0), log, condenser.Config{MinGuidedChars: 1 << 20})
	consumer := NewConsumerService(pubSub, jobs, "CONDENSE_DOCUMENT", p.store, c, p.state, p.events, log, ConsumerConfig{
		MaxAttempts: 1,
		BackoffBase: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	assert.Eventually(t, func() bool {
		return p.store.document(doc.Id).CondensationStatus == entity.CondensationReady
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDocumentService_Summary(t *testing.T) {
	p := newPipeline()
	userId := uuid.New()
	doc := p.seed(t, userId, entity.CondensationSkipped)
	svc := p.documents(0)

	p.state.MarkExceeded(context.Background(), apperr.CodeQuotaExceeded, "quota")
	res, err := svc.Summary(context.Background(), userId, doc.Id)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Nil(t, p.store.document(doc.Id).Summary)

	p.state.Reset(context.Background())
	p.provider.Default = llmtest.Text("Cells turn light and sugar into energy.")
	res, err = svc.Summary(context.Background(), userId, doc.Id)
	require.NoError(t, err)
	assert.False(t, res.Fallback)

	res, err = svc.Summary(context.Background(), userId, doc.Id)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "Cells turn light and sugar into energy.", res.Summary)
}

func TestQuizService_DocumentLifecycle(t *testing.T) {
	p := newPipeline()
	userId := uuid.New()
	doc := p.seed(t, userId, entity.CondensationSkipped)
	svc := p.quizzes()
	ctx := context.Background()

	// quota flag set: everything below runs on the deterministic fallbacks
	p.state.MarkExceeded(ctx, apperr.CodeRateLimited, "429")

	gen, err := svc.GenerateForDocument(ctx, userId, doc.Id, &dto.GenerateDocumentQuizRequest{Type: "mcq", NumQuestions: 4})
	require.NoError(t, err)
	assert.True(t, gen.FallbackUsed)
	require.Len(t, gen.Questions, 4)

	stored := p.store.document(doc.Id)
	assert.Equal(t, gen.Questions, stored.Questions)
	assert.Equal(t, quiz.RequestMCQ, stored.QuestionType)
	assert.NotNil(t, stored.QuestionsGeneratedAt)
	assert.Equal(t, []string{events.QuizGenerated}, p.events.types())

	answers := []string{"A", "B", "C", "D"}
	attempt, err := svc.Submit(ctx, userId, doc.Id, &dto.SubmitQuizRequest{Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 4, attempt.Total)
	assert.Equal(t, attempt.Correct+attempt.Incorrect, attempt.Total)
	original := attempt.Results[1].Question

	regen, err := svc.RegenerateQuestion(ctx, userId, doc.Id, 1)
	require.NoError(t, err)
	assert.NotEqual(t, original.Question, regen.Question.Question)
	assert.Equal(t, regen.Question, p.store.document(doc.Id).Questions[1])

	explained, err := svc.ExplainQuestion(ctx, userId, doc.Id, 0)
	require.NoError(t, err)
	assert.True(t, explained.Fallback)
	assert.Equal(t, explained.Explanation, p.store.document(doc.Id).Questions[0].Explanation)

	attempts, err := svc.ListAttempts(ctx, userId, doc.Id)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, original, attempts[0].Results[1].Question)

	_, err = svc.RegenerateQuestion(ctx, userId, doc.Id, 9)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Submit(ctx, uuid.New(), doc.Id, &dto.SubmitQuizRequest{Answers: answers})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestQuizService_SubmitWithoutQuestions(t *testing.T) {
	p := newPipeline()
	userId := uuid.New()
	doc := p.seed(t, userId, entity.CondensationSkipped)

	_, err := p.quizzes().Submit(context.Background(), userId, doc.Id, &dto.SubmitQuizRequest{Answers: []string{"A"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestQuizService_Evaluate(t *testing.T) {
	svc := newPipeline().quizzes()
	q := quiz.Question{
		Type:          quiz.KindMCQ,
		Question:      "Capital of England?",
		Options:       []string{"Paris", "London", "Berlin", "Rome"},
		CorrectAnswer: "London",
	}

	res, err := svc.Evaluate(context.Background(), &dto.EvaluateQuizRequest{
		Questions: []quiz.Question{q, q},
		Answers:   []string{"b", "Paris"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 50, res.Percentage)

	_, err = svc.Generate(context.Background(), &dto.GenerateQuizRequest{DocumentText: studyText(), Type: "poem"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestEssayService_GradeAndList(t *testing.T) {
	p := newPipeline()
	userId := uuid.New()
	doc := p.seed(t, userId, entity.CondensationSkipped)
	log := logger.NewNopLogger()
	grader, err := essay.NewGrader(p.guard(), log, 8)
	require.NoError(t, err)
	svc := NewEssayService(p.store, grader, p.events, log)
	ctx := context.Background()

	p.state.MarkExceeded(ctx, apperr.CodeQuotaExceeded, "quota")
	res, err := svc.Grade(ctx, userId, &dto.GradeEssayRequest{
		CorrectAnswer: "Photosynthesis converts light into chemical energy.",
		UserAnswer:    "Plants make food from light.",
		DocumentId:    &doc.Id,
	})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, []string{events.EssayGraded}, p.events.types())

	other := uuid.New()
	_, err = svc.Grade(ctx, userId, &dto.GradeEssayRequest{CorrectAnswer: "x", UserAnswer: "y", DocumentId: &other})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := svc.ListGradings(ctx, userId, &doc.Id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.Id, list[0].Id)

	none, err := svc.ListGradings(ctx, uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
