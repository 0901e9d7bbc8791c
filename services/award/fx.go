package award

import (
	"streamrewards/pkg/config"
	"streamrewards/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("award.service",
	fx.Provide(
		NewService,
		NewHandler,
		provideVerifier,
	),
	fx.Invoke(registerRoutes),
)

func provideVerifier(cfg *config.Config) middleware.Verifier {
	return &middleware.JWTVerifier{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	}
}

func registerRoutes(engine *gin.Engine, handler *Handler, verifier middleware.Verifier) {
	authed := engine.Group("/", middleware.Auth(verifier), middleware.Error())
	authed.POST("/award", handler.Award)
	authed.GET("/rewards/balance", handler.Balance)
	authed.GET("/rewards/transactions", handler.Transactions)
}
