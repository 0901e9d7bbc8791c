package notify

import (
	"time"
)

// MilestoneNotification records a lifetime-earnings threshold crossing.
// Informational only; surfaced to the product as a congratulation feed.
type MilestoneNotification struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	MemberID  string    `gorm:"column:member_id;index;not null" json:"memberId"`
	Threshold int64     `gorm:"column:threshold;not null" json:"threshold"`
	Total     int64     `gorm:"column:total;not null" json:"total"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (MilestoneNotification) TableName() string {
	return "milestone_notifications"
}
