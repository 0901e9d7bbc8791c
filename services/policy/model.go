package policy

import (
	"time"
)

// Kind is the category of user behaviour being rewarded.
type Kind string

const (
	KindView          Kind = "VIEW"
	KindLike          Kind = "LIKE"
	KindComment       Kind = "COMMENT"
	KindShare         Kind = "SHARE"
	KindUpload        Kind = "UPLOAD"
	KindFirstUpload   Kind = "FIRST_UPLOAD"
	KindSignup        Kind = "SIGNUP"
	KindWalletConnect Kind = "WALLET_CONNECT"
)

// Kinds lists every valid action kind.
var Kinds = []Kind{
	KindView, KindLike, KindComment, KindShare,
	KindUpload, KindFirstUpload, KindSignup, KindWalletConnect,
}

func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	switch k {
	case KindView, KindLike, KindComment, KindShare,
		KindUpload, KindFirstUpload, KindSignup, KindWalletConnect:
		return k, true
	}
	return "", false
}

func (k Kind) String() string { return string(k) }

// Category groups kinds under a shared daily cap.
type Category string

const (
	CategoryView    Category = "VIEW_GROUP"    // VIEW, LIKE, SHARE; capped by amount
	CategoryComment Category = "COMMENT_GROUP" // COMMENT; capped by amount
	CategoryUpload  Category = "UPLOAD_GROUP"  // UPLOAD; capped by count
)

// CategoryOf returns the daily-cap category for a kind. SIGNUP,
// WALLET_CONNECT and FIRST_UPLOAD carry no daily cap and return false.
func CategoryOf(k Kind) (Category, bool) {
	switch k {
	case KindView, KindLike, KindShare:
		return CategoryView, true
	case KindComment:
		return CategoryComment, true
	case KindUpload:
		return CategoryUpload, true
	}
	return "", false
}

// ScheduleEntry maps an action kind to the amount it awards. Admin-mutable;
// the loader reads it fresh on every request so changes apply immediately.
type ScheduleEntry struct {
	Kind      Kind      `gorm:"column:kind;primaryKey;type:varchar(20)" json:"kind"`
	Amount    int64     `gorm:"column:amount;not null" json:"amount"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ScheduleEntry) TableName() string {
	return "reward_schedule"
}

// DailyLimit maps a cap category to its per-member daily ceiling.
type DailyLimit struct {
	Category  Category  `gorm:"column:category;primaryKey;type:varchar(20)" json:"category"`
	Cap       int64     `gorm:"column:cap;not null" json:"cap"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (DailyLimit) TableName() string {
	return "daily_limits"
}

// Policy is the fully resolved reward policy for a single request.
type Policy struct {
	Amounts map[Kind]int64
	Caps    map[Category]int64
}

// Amount returns the configured amount for a kind, with ok=false when the
// kind is absent from the schedule.
func (p Policy) Amount(k Kind) (int64, bool) {
	amount, ok := p.Amounts[k]
	return amount, ok
}

// Cap returns the daily ceiling for a category; absent categories are
// treated as uncapped.
func (p Policy) Cap(c Category) (int64, bool) {
	cap, ok := p.Caps[c]
	return cap, ok
}

// DefaultPolicy is the compiled-in fallback applied when the configuration
// store is empty or unreachable. Immutable: callers always receive a fresh
// copy.
func DefaultPolicy() Policy {
	return Policy{
		Amounts: map[Kind]int64{
			KindView:          100,
			KindLike:          200,
			KindComment:       500,
			KindShare:         1000,
			KindUpload:        5000,
			KindFirstUpload:   25000,
			KindSignup:        50000,
			KindWalletConnect: 20000,
		},
		Caps: map[Category]int64{
			CategoryView:    100000,
			CategoryComment: 50000,
			CategoryUpload:  10,
		},
	}
}
