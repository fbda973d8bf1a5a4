package entity

import (
	"time"
	"unicode/utf8"

	"ai-studyquiz-be/pkg/study/quiz"

	"github.com/google/uuid"
)

type CondensationStatus string

const (
	CondensationPending CondensationStatus = "pending"
	CondensationReady   CondensationStatus = "ready"
	CondensationFailed  CondensationStatus = "failed"
	CondensationSkipped CondensationStatus = "skipped"
)

type Document struct {
	Id                   uuid.UUID
	UserId               uuid.UUID
	Title                string
	SourceText           string
	CondensedText        *string
	CondensationStatus   CondensationStatus
	CondensationStrategy string
	CondensationAttempts int
	CondensationError    string
	CondensedAt          *time.Time
	Summary              *string
	Questions            []quiz.Question
	QuestionType         quiz.RequestType
	QuestionsGeneratedAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            *time.Time
	DeletedAt            *time.Time
	IsDeleted            bool

	// set when the text columns were not loaded
	SourceLength    int
	CondensedLength int
}

// QuizSource is the text quiz generation should read: the condensed text
// once condensation is ready, the original otherwise.
func (d *Document) QuizSource() string {
	if d.CondensationStatus == CondensationReady && d.CondensedText != nil && *d.CondensedText != "" {
		return *d.CondensedText
	}
	return d.SourceText
}

// HasCondensedText reports whether a usable condensed copy is already stored.
func (d *Document) HasCondensedText() bool {
	if d.CondensedText == nil || *d.CondensedText == "" {
		return false
	}
	return utf8.RuneCountInString(*d.CondensedText) < utf8.RuneCountInString(d.SourceText)
}

// SourceChars is the source length in characters, loaded or not.
func (d *Document) SourceChars() int {
	if d.SourceText != "" {
		return utf8.RuneCountInString(d.SourceText)
	}
	return d.SourceLength
}

func (d *Document) CondensedChars() int {
	if d.CondensedText != nil && *d.CondensedText != "" {
		return utf8.RuneCountInString(*d.CondensedText)
	}
	return d.CondensedLength
}
