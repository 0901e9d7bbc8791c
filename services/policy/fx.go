package policy

import (
	"streamrewards/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("policy.service",
	fx.Provide(
		func(db *gorm.DB) Loader { return NewLoader(db) },
		NewService,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, svc *Service, verifier middleware.Verifier) {
	// The schedule and limit tables drive every awarded amount; mutation
	// is never anonymous.
	admin := engine.Group("/policy", middleware.Auth(verifier), middleware.Error())
	admin.GET("", svc.GetPolicy)
	admin.PUT("/schedule", svc.UpsertSchedule)
	admin.PUT("/limits", svc.UpsertLimit)
}
