package award

import (
	"time"

	"streamrewards/services/policy"

	"gorm.io/datatypes"
)

// RewardTransaction is the append-only audit trail of every accepted award.
// Rows are immutable once written; only the external claim process may flip
// Claimed.
type RewardTransaction struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	MemberID  string         `gorm:"column:member_id;index;uniqueIndex:idx_member_session" json:"memberId"`
	Kind      policy.Kind    `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	Amount    int64          `gorm:"column:amount;not null" json:"amount"`
	ContentID string         `gorm:"column:content_id;index" json:"contentId,omitempty"`
	Reference string         `gorm:"column:reference;not null" json:"reference"`
	SessionID *string        `gorm:"column:session_id;uniqueIndex:idx_member_session" json:"sessionId,omitempty"`
	Claimed   bool           `gorm:"column:claimed;not null;default:false" json:"claimed"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (RewardTransaction) TableName() string {
	return "reward_transactions"
}

// DailyCounter tracks per-member accrual for one UTC calendar day. Created
// lazily on the first action of the day; counters only ever increase within
// a day.
type DailyCounter struct {
	MemberID           string    `gorm:"column:member_id;primaryKey" json:"memberId"`
	Day                string    `gorm:"column:day;primaryKey;type:varchar(10)" json:"day"`
	ViewRewardsEarned  int64     `gorm:"column:view_rewards_earned;not null;default:0" json:"viewRewardsEarned"`
	CommentRewards     int64     `gorm:"column:comment_rewards_earned;not null;default:0" json:"commentRewardsEarned"`
	UploadRewards      int64     `gorm:"column:upload_rewards_earned;not null;default:0" json:"uploadRewardsEarned"`
	UploadsCount       int64     `gorm:"column:uploads_count;not null;default:0" json:"uploadsCount"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (DailyCounter) TableName() string {
	return "daily_counters"
}

// ViewLog records an accepted view reward for duplicate suppression. Written
// only inside a successful ledger commit so rejected actions leave no
// phantom dedup record.
type ViewLog struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	MemberID  string    `gorm:"column:member_id;index:idx_view_dedup;not null" json:"memberId"`
	ContentID string    `gorm:"column:content_id;index:idx_view_dedup;not null" json:"contentId"`
	CreatedAt time.Time `gorm:"column:created_at;index;autoCreateTime" json:"createdAt"`
}

func (ViewLog) TableName() string {
	return "view_logs"
}

// CommentLog records an accepted comment reward keyed by the deterministic
// fingerprint of the comment body.
type CommentLog struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	MemberID    string    `gorm:"column:member_id;index:idx_comment_dedup;not null" json:"memberId"`
	Fingerprint string    `gorm:"column:fingerprint;index:idx_comment_dedup;not null" json:"fingerprint"`
	CreatedAt   time.Time `gorm:"column:created_at;index;autoCreateTime" json:"createdAt"`
}

func (CommentLog) TableName() string {
	return "comment_logs"
}

// Models lists every table owned by the award engine, for migrations and
// tests.
func Models() []any {
	return []any{
		&RewardTransaction{},
		&DailyCounter{},
		&ViewLog{},
		&CommentLog{},
	}
}

// Action is the ephemeral, validated request handed to the award engine.
type Action struct {
	MemberID    string
	Kind        policy.Kind
	ContentID   string
	Fingerprint string
	SessionID   string
}

// Soft rejection reasons surfaced to the caller with success=false.
const (
	ReasonDuplicateView    = "Already rewarded for this view"
	ReasonDuplicateComment = "Duplicate comment"
	ReasonDuplicateSession = "Duplicate request"
	ReasonLimitExceeded    = "Daily limit reached"
)

// Result is the business outcome of one award invocation. Success=false
// with a Reason is a routine soft rejection, not an error.
type Result struct {
	Success    bool        `json:"success"`
	Reason     string      `json:"reason,omitempty"`
	Milestone  *int64      `json:"milestone"`
	NewTotal   int64       `json:"newTotal"`
	NewPending int64       `json:"pendingRewards"`
	Amount     int64       `json:"amount"`
	Kind       policy.Kind `json:"type"`
}

func rejected(kind policy.Kind, reason string) *Result {
	return &Result{
		Success:   false,
		Reason:    reason,
		Milestone: nil,
		Kind:      kind,
	}
}
