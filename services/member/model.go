package member

import (
	"time"
)

// Member is the reward-facing slice of the user profile. TotalEarned only
// ever grows through the award ledger; PendingRewards grows through the
// ledger and shrinks only when the external claim process converts it.
// PendingRewards <= TotalEarned holds at all times.
type Member struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	DisplayName    string    `gorm:"column:display_name" json:"displayName"`
	WalletAddress  string    `gorm:"column:wallet_address" json:"walletAddress,omitempty"`
	TotalEarned    int64     `gorm:"column:total_earned;not null;default:0" json:"totalEarned"`
	PendingRewards int64     `gorm:"column:pending_rewards;not null;default:0" json:"pendingRewards"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Member) TableName() string {
	return "members"
}
