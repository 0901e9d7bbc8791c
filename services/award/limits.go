package award

import (
	"context"
	"errors"
	"time"

	"streamrewards/services/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errLimitExceeded aborts the ledger transaction when the grant would push
// the member past the configured daily cap.
var errLimitExceeded = errors.New("daily limit exceeded")

// dayKey is the UTC calendar date owning a DailyCounter row.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// applyDailyCounter lazily creates today's counter row and applies a
// conditional atomic increment. The cap check lives in the WHERE clause so
// two racing requests cannot both slip under the ceiling; zero rows
// affected means the cap would be exceeded.
func applyDailyCounter(ctx context.Context, tx *gorm.DB, memberID string, kind policy.Kind, amount int64, pol policy.Policy, day string) error {
	category, capped := policy.CategoryOf(kind)
	if !capped {
		return nil
	}

	cap, ok := pol.Cap(category)
	if !ok {
		return nil
	}

	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&DailyCounter{MemberID: memberID, Day: day}).Error; err != nil {
		return err
	}

	base := tx.WithContext(ctx).Model(&DailyCounter{}).
		Where("member_id = ? AND day = ?", memberID, day)

	var res *gorm.DB
	switch category {
	case policy.CategoryView:
		res = base.
			Where("view_rewards_earned + ? <= ?", amount, cap).
			Updates(map[string]any{
				"view_rewards_earned": gorm.Expr("view_rewards_earned + ?", amount),
				"updated_at":          time.Now(),
			})
	case policy.CategoryComment:
		res = base.
			Where("comment_rewards_earned + ? <= ?", amount, cap).
			Updates(map[string]any{
				"comment_rewards_earned": gorm.Expr("comment_rewards_earned + ?", amount),
				"updated_at":             time.Now(),
			})
	case policy.CategoryUpload:
		// upload cap counts actions, not amount
		res = base.
			Where("uploads_count + 1 <= ?", cap).
			Updates(map[string]any{
				"uploads_count":          gorm.Expr("uploads_count + 1"),
				"upload_rewards_earned":  gorm.Expr("upload_rewards_earned + ?", amount),
				"updated_at":             time.Now(),
			})
	default:
		return nil
	}

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errLimitExceeded
	}

	return nil
}
