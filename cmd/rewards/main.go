package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamrewards/pkg/config"
	"streamrewards/pkg/db"
	"streamrewards/pkg/gen"
	"streamrewards/pkg/health"
	"streamrewards/pkg/logger"
	"streamrewards/pkg/redis"
	"streamrewards/pkg/sequence"
	"streamrewards/pkg/server"
	"streamrewards/pkg/task"
	"streamrewards/services/award"
	"streamrewards/services/member"
	"streamrewards/services/policy"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		gen.Module,
		server.ProvideHTTPServer,
		health.Module,
		member.Module,
		policy.Module,
		award.Module,
		fx.Invoke(registerDBPlugins),
		fx.Invoke(migrate),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func registerDBPlugins(cfg *config.Config, gdb *gorm.DB) error {
	if cfg.Database.Type == "sqlite" {
		return nil
	}
	if err := db.Otel(gdb); err != nil {
		return err
	}
	return db.Metric(gdb, cfg.Database.DBNAME)
}

func migrate(gdb *gorm.DB) error {
	models := []any{&member.Member{}, &policy.ScheduleEntry{}, &policy.DailyLimit{}}
	models = append(models, award.Models()...)
	return gdb.AutoMigrate(models...)
}
