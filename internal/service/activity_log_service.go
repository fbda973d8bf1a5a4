package service

import (
	"context"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/events"
	pktNats "ai-studyquiz-be/pkg/nats"
)

type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// IActivityLogService writes every study event from the bus to the activity log.
type IActivityLogService interface {
	Start() error
}

type activityLogService struct {
	subscriber EventSubscriber
	logger     logger.ILogger
}

func NewActivityLogService(subscriber EventSubscriber, log logger.ILogger) IActivityLogService {
	return &activityLogService{subscriber: subscriber, logger: log}
}

func (s *activityLogService) Start() error {
	return s.subscriber.Subscribe(pktNats.Subject(">"), "study-activity-log", s.handle)
}

func (s *activityLogService) handle(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()
	s.logger.Info("Activity", event.EventType(), details)
	return nil
}
