package award

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ViewDedupWindow is the trailing interval during which a repeated view of
// the same content by the same member earns nothing.
const ViewDedupWindow = 60 * time.Second

// fraudFilter applies the per-kind anti-abuse rules. Lookups that fail
// (datastore outage) fail open: availability wins, the daily cap still
// bounds total exposure.
type fraudFilter struct {
	db  *gorm.DB
	now func() time.Time
}

func newFraudFilter(db *gorm.DB, now func() time.Time) *fraudFilter {
	if now == nil {
		now = time.Now
	}
	return &fraudFilter{db: db, now: now}
}

// duplicateView reports whether the member was already rewarded for this
// content within the dedup window.
func (f *fraudFilter) duplicateView(ctx context.Context, memberID, contentID string) bool {
	since := f.now().Add(-ViewDedupWindow)

	var count int64
	err := f.db.WithContext(ctx).Model(&ViewLog{}).
		Where("member_id = ? AND content_id = ? AND created_at > ?", memberID, contentID, since).
		Count(&count).Error
	if err != nil {
		zap.L().Warn("view dedup lookup failed, failing open",
			zap.String("member_id", memberID),
			zap.String("content_id", contentID),
			zap.Error(err),
		)
		return false
	}

	return count > 0
}

// duplicateComment reports whether an identical comment fingerprint was
// already rewarded for this member during the current UTC calendar day.
func (f *fraudFilter) duplicateComment(ctx context.Context, memberID, fingerprint string) bool {
	dayStart := f.now().UTC().Truncate(24 * time.Hour)

	var count int64
	err := f.db.WithContext(ctx).Model(&CommentLog{}).
		Where("member_id = ? AND fingerprint = ? AND created_at >= ?", memberID, fingerprint, dayStart).
		Count(&count).Error
	if err != nil {
		zap.L().Warn("comment dedup lookup failed, failing open",
			zap.String("member_id", memberID),
			zap.Error(err),
		)
		return false
	}

	return count > 0
}
