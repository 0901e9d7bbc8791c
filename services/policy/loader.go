package policy

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Loader resolves the current reward policy. A configuration outage must
// not block reward-earning platform-wide, so any read failure or an empty
// table degrades to the compiled-in defaults.
type Loader interface {
	Load(ctx context.Context) Policy
}

type dbLoader struct {
	db *gorm.DB
}

func NewLoader(db *gorm.DB) Loader {
	return &dbLoader{db: db}
}

func (l *dbLoader) Load(ctx context.Context) Policy {
	p := DefaultPolicy()

	var entries []ScheduleEntry
	if err := l.db.WithContext(ctx).Find(&entries).Error; err != nil {
		zap.L().Warn("reward schedule unavailable, using default policy", zap.Error(err))
		return p
	}

	for _, e := range entries {
		p.Amounts[e.Kind] = e.Amount
	}

	var limits []DailyLimit
	if err := l.db.WithContext(ctx).Find(&limits).Error; err != nil {
		zap.L().Warn("daily limits unavailable, using default caps", zap.Error(err))
		return p
	}

	for _, lim := range limits {
		p.Caps[lim.Category] = lim.Cap
	}

	return p
}
