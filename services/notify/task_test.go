package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"streamrewards/services/award"
	"streamrewards/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestHandleMilestoneReached(t *testing.T) {
	db := testutil.NewTestDB(t, &MilestoneNotification{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	task := NewTask(TaskParams{DB: db, Node: node})

	payload, err := json.Marshal(award.MilestonePayload{
		MemberID:  "m1",
		Threshold: 10000,
		NewTotal:  50000,
	})
	require.NoError(t, err)

	err = task.HandleMilestoneReached(context.Background(), asynq.NewTask(award.TypeMilestoneReached, payload))
	require.NoError(t, err)

	var n MilestoneNotification
	require.NoError(t, db.Where("member_id = ?", "m1").First(&n).Error)
	require.Equal(t, int64(10000), n.Threshold)
	require.Equal(t, int64(50000), n.Total)
}

func TestHandleMilestoneReachedInvalidPayload(t *testing.T) {
	db := testutil.NewTestDB(t, &MilestoneNotification{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	task := NewTask(TaskParams{DB: db, Node: node})

	err = task.HandleMilestoneReached(context.Background(), asynq.NewTask(award.TypeMilestoneReached, []byte("not json")))
	require.Error(t, err)
}
