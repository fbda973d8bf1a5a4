package service

import (
	"context"

	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/pkg/logger"
	pktNats "ai-studyquiz-be/pkg/nats"
	"ai-studyquiz-be/pkg/study/fallback"

	"github.com/google/uuid"
)

type IAIStatusService interface {
	Status(ctx context.Context) *dto.AIStatusResponse
	Reset(ctx context.Context) *dto.AIStatusResponse
}

type aiStatusService struct {
	state    fallback.State
	sync     *QuotaSync
	provider string
	model    string
	logger   logger.ILogger
}

// NewAIStatusService reports and clears the AI quota flag. sync may be nil
// when instances do not share quota state over NATS.
func NewAIStatusService(state fallback.State, sync *QuotaSync, provider, model string, log logger.ILogger) IAIStatusService {
	return &aiStatusService{state: state, sync: sync, provider: provider, model: model, logger: log}
}

func (s *aiStatusService) Status(ctx context.Context) *dto.AIStatusResponse {
	st := s.state.Status(ctx)
	return &dto.AIStatusResponse{
		Available:     !st.QuotaExceeded,
		QuotaExceeded: st.QuotaExceeded,
		Code:          st.Code,
		Reason:        st.Reason,
		Since:         st.Since,
		ExpiresAt:     st.ExpiresAt,
		Provider:      s.provider,
		Model:         s.model,
	}
}

func (s *aiStatusService) Reset(ctx context.Context) *dto.AIStatusResponse {
	s.state.Reset(ctx)
	s.logger.Info("AIStatusService", "AI quota flag reset manually", nil)
	if s.sync != nil {
		if err := s.sync.Reset(ctx); err != nil {
			s.logger.Warn("AIStatusService", "Failed to broadcast quota reset", map[string]interface{}{"error": err.Error()})
		}
	}
	return s.Status(ctx)
}

type QuotaBroadcaster interface {
	Broadcast(ctx context.Context, msg pktNats.Broadcast) error
	Listen(handler func(pktNats.Broadcast)) (func(), error)
}

// QuotaSync shares quota-state changes with other instances. It is the
// Guard's fallback.Notifier on the sending side and applies remote changes
// to the local state on the receiving side.
type QuotaSync struct {
	broadcaster QuotaBroadcaster
	state       fallback.State
	origin      string
	logger      logger.ILogger
}

var _ fallback.Notifier = (*QuotaSync)(nil)

func NewQuotaSync(broadcaster QuotaBroadcaster, state fallback.State, log logger.ILogger) *QuotaSync {
	return &QuotaSync{
		broadcaster: broadcaster,
		state:       state,
		origin:      uuid.NewString(),
		logger:      log,
	}
}

func (q *QuotaSync) QuotaExceeded(ctx context.Context, code, reason string) error {
	return q.broadcaster.Broadcast(ctx, pktNats.Broadcast{
		Origin: q.origin,
		Action: "exceeded",
		Code:   code,
		Reason: reason,
	})
}

func (q *QuotaSync) Reset(ctx context.Context) error {
	return q.broadcaster.Broadcast(ctx, pktNats.Broadcast{Origin: q.origin, Action: "reset"})
}

// Start applies broadcasts from other instances until stop is called.
func (q *QuotaSync) Start() (stop func(), err error) {
	return q.broadcaster.Listen(q.apply)
}

func (q *QuotaSync) apply(msg pktNats.Broadcast) {
	if msg.Origin == q.origin {
		return
	}
	ctx := context.Background()
	switch msg.Action {
	case "exceeded":
		q.state.MarkExceeded(ctx, msg.Code, msg.Reason)
		q.logger.Warn("QuotaSync", "AI quota exceeded on another instance", map[string]interface{}{
			"code":   msg.Code,
			"origin": msg.Origin,
		})
	case "reset":
		q.state.Reset(ctx)
		q.logger.Info("QuotaSync", "AI quota flag reset by another instance", map[string]interface{}{"origin": msg.Origin})
	}
}
