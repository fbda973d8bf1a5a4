package entity

import (
	"time"

	"ai-studyquiz-be/pkg/study/essay"

	"github.com/google/uuid"
)

type EssayGrading struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	DocumentId    *uuid.UUID
	CorrectAnswer string
	UserAnswer    string
	Result        essay.Result
	CreatedAt     time.Time
}
