package award

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"streamrewards/pkg/errutil"
	"streamrewards/pkg/sequence"
	"streamrewards/services/member"
	"streamrewards/services/policy"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the award engine: the single server-side gate every
// reward-granting action passes through before a member's balance changes.
type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	loader policy.Loader
	seq    sequence.Generator
	tasks  *asynq.Client
	fraud  *fraudFilter
	now    func() time.Time
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Loader policy.Loader
	Seq    sequence.Generator `optional:"true"`
	Tasks  *asynq.Client      `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		loader: p.Loader,
		seq:    p.Seq,
		tasks:  p.Tasks,
		fraud:  newFraudFilter(p.DB, nil),
		now:    time.Now,
	}
}

// Award runs the full pipeline for one validated action:
// load policy, idempotency check, fraud check, then a single transaction
// covering balance update, transaction append, daily-counter enforcement
// and dedup-log write. Soft rejections come back as a Result with
// Success=false; hard failures as an error.
func (s *Service) Award(ctx context.Context, action Action) (*Result, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("member_id", action.MemberID),
		zap.String("kind", action.Kind.String()),
	)

	pol := s.loader.Load(ctx)

	amount, ok := pol.Amount(action.Kind)
	if !ok {
		return nil, errutil.BadRequest("Reward type not configured", nil)
	}

	if action.SessionID != "" {
		if dup, err := s.duplicateSession(ctx, action.MemberID, action.SessionID); err != nil {
			zapLog.Error("idempotency lookup failed", zap.Error(err))
			return nil, errutil.Internal("Database error", err)
		} else if dup {
			return rejected(action.Kind, ReasonDuplicateSession), nil
		}
	}

	switch action.Kind {
	case policy.KindView:
		if s.fraud.duplicateView(ctx, action.MemberID, action.ContentID) {
			return rejected(action.Kind, ReasonDuplicateView), nil
		}
	case policy.KindComment:
		if s.fraud.duplicateComment(ctx, action.MemberID, action.Fingerprint) {
			return rejected(action.Kind, ReasonDuplicateComment), nil
		}
	}

	reference := s.nextReference(ctx, action.Kind)

	var oldTotal, oldPending int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m member.Member
		if err := tx.Where("id = ?", action.MemberID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errutil.NotFound("Profile not found", err)
			}
			return errutil.Internal("Database error", err)
		}
		oldTotal = m.TotalEarned
		oldPending = m.PendingRewards

		res := tx.Model(&member.Member{}).
			Where("id = ?", action.MemberID).
			Updates(map[string]any{
				"total_earned":    gorm.Expr("total_earned + ?", amount),
				"pending_rewards": gorm.Expr("pending_rewards + ?", amount),
				"updated_at":      s.now(),
			})
		if res.Error != nil {
			return errutil.Internal("Failed to update rewards", res.Error)
		}

		if err := applyDailyCounter(ctx, tx, action.MemberID, action.Kind, amount, pol, dayKey(s.now())); err != nil {
			if errors.Is(err, errLimitExceeded) {
				return err
			}
			return errutil.Internal("Failed to update rewards", err)
		}

		if err := tx.Create(s.newTransaction(action, amount, reference)).Error; err != nil {
			return errutil.Internal("Failed to update rewards", err)
		}

		switch action.Kind {
		case policy.KindView:
			if err := tx.Create(&ViewLog{
				ID:        s.node.Generate().String(),
				MemberID:  action.MemberID,
				ContentID: action.ContentID,
				CreatedAt: s.now(),
			}).Error; err != nil {
				return errutil.Internal("Failed to update rewards", err)
			}
		case policy.KindComment:
			if err := tx.Create(&CommentLog{
				ID:          s.node.Generate().String(),
				MemberID:    action.MemberID,
				Fingerprint: action.Fingerprint,
				CreatedAt:   s.now(),
			}).Error; err != nil {
				return errutil.Internal("Failed to update rewards", err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, errLimitExceeded) {
			return rejected(action.Kind, ReasonLimitExceeded), nil
		}
		return nil, err
	}

	newTotal := oldTotal + amount
	milestone := highestCrossed(oldTotal, newTotal)

	zapLog.Info("reward granted",
		zap.Int64("amount", amount),
		zap.Int64("new_total", newTotal),
		zap.String("reference", reference),
	)

	if milestone != nil {
		s.enqueueMilestone(ctx, action.MemberID, *milestone, newTotal)
	}

	return &Result{
		Success:    true,
		Milestone:  milestone,
		NewTotal:   newTotal,
		NewPending: oldPending + amount,
		Amount:     amount,
		Kind:       action.Kind,
	}, nil
}

// ListTransactions returns the most recent ledger rows for a member, newest
// first.
func (s *Service) ListTransactions(ctx context.Context, memberID string, limit int) ([]RewardTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var rows []RewardTransaction
	if err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, errutil.Internal("Database error", err)
	}

	return rows, nil
}

func (s *Service) duplicateSession(ctx context.Context, memberID, sessionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&RewardTransaction{}).
		Where("member_id = ? AND session_id = ?", memberID, sessionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) newTransaction(action Action, amount int64, reference string) *RewardTransaction {
	tx := &RewardTransaction{
		ID:        s.node.Generate().String(),
		MemberID:  action.MemberID,
		Kind:      action.Kind,
		Amount:    amount,
		ContentID: action.ContentID,
		Reference: reference,
		Claimed:   false,
		CreatedAt: s.now(),
	}

	if action.SessionID != "" {
		sid := action.SessionID
		tx.SessionID = &sid
	}

	meta := map[string]string{}
	if action.ContentID != "" {
		meta["content_id"] = action.ContentID
	}
	if action.Fingerprint != "" {
		meta["fingerprint"] = action.Fingerprint
	}
	if len(meta) > 0 {
		b, _ := json.Marshal(meta)
		tx.Metadata = datatypes.JSON(b)
	}

	return tx
}

// nextReference produces the audit reference for the transaction row. The
// generator already degrades to a random suffix when redis is down; a nil
// generator (tests) degrades further to a timestamp-only code.
func (s *Service) nextReference(ctx context.Context, kind policy.Kind) string {
	if s.seq == nil {
		return kind.String() + "-" + s.now().UTC().Format("060102150405")
	}

	ref, err := s.seq.NextRewardRef(ctx, kind.String())
	if err != nil {
		zap.L().Warn("reference generation failed", zap.Error(err))
		return kind.String() + "-" + s.now().UTC().Format("060102150405")
	}
	return ref
}
