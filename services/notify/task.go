package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"streamrewards/services/award"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Task struct {
	db   *gorm.DB
	node *snowflake.Node
}

type TaskParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewTask(p TaskParams) *Task {
	return &Task{
		db:   p.DB,
		node: p.Node,
	}
}

// HandleMilestoneReached persists the crossing so the product can surface
// it. Errors return to asynq for retry.
func (t *Task) HandleMilestoneReached(ctx context.Context, task *asynq.Task) error {
	var payload award.MilestonePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", task.Type()),
		zap.String("member_id", payload.MemberID),
		zap.Int64("threshold", payload.Threshold),
		zap.String("trace_id", payload.TraceID),
	)

	notification := &MilestoneNotification{
		ID:        t.node.Generate().String(),
		MemberID:  payload.MemberID,
		Threshold: payload.Threshold,
		Total:     payload.NewTotal,
	}

	if err := t.db.WithContext(ctx).Create(notification).Error; err != nil {
		zapLog.Error("failed to record milestone notification", zap.Error(err))
		return err
	}

	zapLog.Info("milestone notification recorded")
	return nil
}
