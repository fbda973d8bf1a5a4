package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/repository/contract"
	"ai-studyquiz-be/internal/repository/specification"
	"ai-studyquiz-be/internal/repository/unitofwork"
	"ai-studyquiz-be/pkg/events"
	"ai-studyquiz-be/pkg/study/quiz"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// store is an in-memory stand-in for the three tables.
type store struct {
	mu        sync.Mutex
	documents map[uuid.UUID]*entity.Document
	attempts  []*entity.QuizAttempt
	gradings  []*entity.EssayGrading
	// failUpdates makes UpdateFields fail, to exercise persistence errors
	failUpdates bool
}

func newStore() *store {
	return &store{documents: map[uuid.UUID]*entity.Document{}}
}

func (s *store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{s: s}
}

func (s *store) document(id uuid.UUID) *entity.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return nil
	}
	c := *d
	return &c
}

type fakeUoW struct {
	s *store
}

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) DocumentRepository() contract.DocumentRepository {
	return &fakeDocuments{s: u.s}
}

func (u *fakeUoW) QuizAttemptRepository() contract.QuizAttemptRepository {
	return &fakeAttempts{s: u.s}
}

func (u *fakeUoW) EssayGradingRepository() contract.EssayGradingRepository {
	return &fakeGradings{s: u.s}
}

type criteria struct {
	id         *uuid.UUID
	userId     *uuid.UUID
	documentId *uuid.UUID
	status     *string
	// textless mirrors the list projection: lengths only
	textless bool
}

func match(specs []specification.Specification) criteria {
	var c criteria
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			c.id = &sp.ID
		case specification.UserOwnedBy:
			c.userId = &sp.UserID
		case specification.ByDocumentID:
			c.documentId = &sp.DocumentID
		case specification.ByCondensationStatus:
			c.status = &sp.Status
		case specification.WithoutSourceText:
			c.textless = true
		}
	}
	return c
}

func (c criteria) ok(id, userId uuid.UUID, documentId *uuid.UUID) bool {
	if c.id != nil && *c.id != id {
		return false
	}
	if c.userId != nil && *c.userId != userId {
		return false
	}
	if c.documentId != nil && (documentId == nil || *c.documentId != *documentId) {
		return false
	}
	return true
}

type fakeDocuments struct {
	s *store
}

func (r *fakeDocuments) Create(ctx context.Context, d *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *d
	r.s.documents[d.Id] = &c
	return nil
}

func (r *fakeDocuments) Update(ctx context.Context, d *entity.Document) error {
	return r.Create(ctx, d)
}

func (r *fakeDocuments) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failUpdates {
		return errors.New("database unavailable")
	}
	d, ok := r.s.documents[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "condensed_text":
			s := v.(string)
			d.CondensedText = &s
		case "condensation_status":
			d.CondensationStatus = entity.CondensationStatus(v.(string))
		case "condensation_strategy":
			d.CondensationStrategy = v.(string)
		case "condensation_attempts":
			d.CondensationAttempts = v.(int)
		case "condensation_error":
			d.CondensationError = v.(string)
		case "condensed_at":
			t := v.(time.Time)
			d.CondensedAt = &t
		case "summary":
			s := v.(string)
			d.Summary = &s
		case "questions":
			var qs []quiz.Question
			if err := json.Unmarshal(v.(datatypes.JSON), &qs); err != nil {
				return err
			}
			d.Questions = qs
		case "question_type":
			d.QuestionType = quiz.RequestType(v.(string))
		case "questions_generated_at":
			t := v.(time.Time)
			d.QuestionsGeneratedAt = &t
		default:
			return errors.New("unknown column " + k)
		}
	}
	return nil
}

func (r *fakeDocuments) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.documents, id)
	return nil
}

func (r *fakeDocuments) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	docs, _ := r.FindAll(ctx, specs...)
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (r *fakeDocuments) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := match(specs)
	var out []*entity.Document
	for _, d := range r.s.documents {
		if !c.ok(d.Id, d.UserId, nil) {
			continue
		}
		if c.status != nil && string(d.CondensationStatus) != *c.status {
			continue
		}
		cp := *d
		cp.Questions = append([]quiz.Question(nil), d.Questions...)
		if c.textless {
			cp.SourceLength = d.SourceChars()
			cp.CondensedLength = d.CondensedChars()
			cp.SourceText = ""
			cp.CondensedText = nil
			cp.Summary = nil
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeDocuments) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	docs, _ := r.FindAll(ctx, specs...)
	return int64(len(docs)), nil
}

type fakeAttempts struct {
	s *store
}

func (r *fakeAttempts) Create(ctx context.Context, a *entity.QuizAttempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *a
	r.s.attempts = append(r.s.attempts, &c)
	return nil
}

func (r *fakeAttempts) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuizAttempt, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeAttempts) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuizAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := match(specs)
	var out []*entity.QuizAttempt
	for i := len(r.s.attempts) - 1; i >= 0; i-- {
		a := r.s.attempts[i]
		if c.ok(a.Id, a.UserId, &a.DocumentId) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAttempts) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeAttempts) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.attempts[:0]
	for _, a := range r.s.attempts {
		if a.DocumentId != documentId {
			kept = append(kept, a)
		}
	}
	r.s.attempts = kept
	return nil
}

type fakeGradings struct {
	s *store
}

func (r *fakeGradings) Create(ctx context.Context, g *entity.EssayGrading) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *g
	r.s.gradings = append(r.s.gradings, &c)
	return nil
}

func (r *fakeGradings) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EssayGrading, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := match(specs)
	var out []*entity.EssayGrading
	for i := len(r.s.gradings) - 1; i >= 0; i-- {
		g := r.s.gradings[i]
		if c.ok(g.Id, g.UserId, g.DocumentId) {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeGradings) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// recordingPublisher captures jobs and events.
type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) jobs(t *testing.T) []dto.PublishCondenseDocumentMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]dto.PublishCondenseDocumentMessage, len(p.payloads))
	for i, payload := range p.payloads {
		require.NoError(t, json.Unmarshal(payload, &out[i]))
	}
	return out
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingEvents) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingEvents) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
