package award

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const TypeMilestoneReached = "rewards:milestone_reached"

// MilestonePayload is handed to the notification worker when a member
// crosses a lifetime-earnings threshold.
type MilestonePayload struct {
	MemberID  string `json:"member_id"`
	Threshold int64  `json:"threshold"`
	NewTotal  int64  `json:"new_total"`
	TraceID   string `json:"trace_id,omitempty"`
}

// enqueueMilestone hands the crossing to the worker. Best-effort: the award
// is already committed, so a broker outage only costs the notification.
func (s *Service) enqueueMilestone(ctx context.Context, memberID string, threshold, newTotal int64) {
	if s.tasks == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	payload, err := json.Marshal(MilestonePayload{
		MemberID:  memberID,
		Threshold: threshold,
		NewTotal:  newTotal,
		TraceID:   span.SpanContext().TraceID().String(),
	})
	if err != nil {
		return
	}

	if _, err := s.tasks.EnqueueContext(ctx, asynq.NewTask(TypeMilestoneReached, payload), asynq.Queue("low")); err != nil {
		zap.L().Warn("failed to enqueue milestone notification",
			zap.String("member_id", memberID),
			zap.Int64("threshold", threshold),
			zap.Error(err),
		)
	}
}
