package member

import (
	"context"
	"errors"

	"streamrewards/pkg/errutil"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db: p.DB,
	}
}

// Get returns the member profile, or a NotFound error. An authenticated
// caller with no profile row indicates upstream data inconsistency.
func (s *Service) Get(ctx context.Context, memberID string) (*Member, error) {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID().String()

	var m Member
	if err := s.db.WithContext(ctx).Where("id = ?", memberID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("Profile not found", err)
		}
		zap.L().Error("failed to query member", zap.String("trace_id", traceID), zap.String("member_id", memberID), zap.Error(err))
		return nil, errutil.Internal("Database error", err)
	}

	return &m, nil
}

// Ensure lazily provisions the profile row for an authenticated member so
// first-session actions (signup award included) have a row to update.
func (s *Service) Ensure(ctx context.Context, memberID string) (*Member, error) {
	m, err := s.Get(ctx, memberID)
	if err == nil {
		return m, nil
	}

	var be errutil.BaseError
	if !errors.As(err, &be) || be.Status() != errutil.StatusNotFound {
		return nil, err
	}

	created := &Member{ID: memberID}
	if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, errutil.Internal("Database error", err)
	}

	zap.L().Info("provisioned member profile", zap.String("member_id", memberID))
	return created, nil
}
