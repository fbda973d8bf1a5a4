package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId               uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title                string         `gorm:"type:varchar(255);not null"`
	SourceText           string         `gorm:"type:text;not null"`
	CondensedText        *string        `gorm:"type:text"`
	CondensationStatus   string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	CondensationStrategy string         `gorm:"type:varchar(20)"`
	CondensationAttempts int            `gorm:"not null;default:0"`
	CondensationError    string         `gorm:"type:text"`
	CondensedAt          *time.Time     `gorm:"type:timestamptz"`
	Summary              *string        `gorm:"type:text"`
	Questions            datatypes.JSON `gorm:"type:jsonb"`
	QuestionType         string         `gorm:"type:varchar(30)"`
	QuestionsGeneratedAt *time.Time     `gorm:"type:timestamptz"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime"`
	DeletedAt            gorm.DeletedAt `gorm:"index"`

	// filled only by list queries that skip the text columns
	SourceLength    int `gorm:"->;-:migration"`
	CondensedLength int `gorm:"->;-:migration"`
}

func (Document) TableName() string {
	return "documents"
}
