package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QuizAttempt struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	DocumentId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Total      int            `gorm:"not null"`
	Correct    int            `gorm:"not null"`
	Incorrect  int            `gorm:"not null"`
	Percentage int            `gorm:"not null"`
	Results    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

type EssayGrading struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	DocumentId    *uuid.UUID     `gorm:"type:uuid;index"`
	CorrectAnswer string         `gorm:"type:text;not null"`
	UserAnswer    string         `gorm:"type:text;not null"`
	Score         int            `gorm:"not null"`
	Grade         string         `gorm:"type:varchar(30);not null"`
	Degraded      bool           `gorm:"not null;default:false"`
	Result        datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
}

func (EssayGrading) TableName() string {
	return "essay_gradings"
}
