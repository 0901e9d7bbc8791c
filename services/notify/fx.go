package notify

import (
	"streamrewards/services/award"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("notify.task",
	fx.Provide(NewTask),
	fx.Invoke(registerHandlers),
)

func registerHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(award.TypeMilestoneReached, task.HandleMilestoneReached)
}
