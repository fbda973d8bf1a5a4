package nats

import (
	"testing"
	"time"

	"ai-studyquiz-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data := []byte(`{"document_id":"abc","question_count":8,"occurred_at":"` + at.Format(time.RFC3339Nano) + `"}`)

	event, err := DecodeEvent(Subject(events.QuizGenerated), data)
	require.NoError(t, err)
	assert.Equal(t, events.QuizGenerated, event.EventType())
	assert.True(t, at.Equal(event.Timestamp()))
	assert.Equal(t, "abc", event.Payload()["document_id"])
	assert.NotContains(t, event.Payload(), occurredAtKey)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := DecodeEvent("events.X", []byte("not json"))
	assert.Error(t, err)
}
