package events

import "time"

// Event types published on the bus as events.<TYPE>.
const (
	DocumentCondensed = "DOCUMENT_CONDENSED"
	QuizGenerated     = "QUIZ_GENERATED"
	QuizSubmitted     = "QUIZ_SUBMITTED"
	EssayGraded       = "ESSAY_GRADED"
)

type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
