package award

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamrewards/pkg/errutil"
	"streamrewards/services/member"
	"streamrewards/services/policy"
	"streamrewards/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type staticLoader struct {
	p policy.Policy
}

func (l staticLoader) Load(ctx context.Context) policy.Policy {
	return l.p
}

// testClock is a controllable time source shared by the service and its
// fraud filter.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestService(t *testing.T, pol policy.Policy) (*Service, *gorm.DB, *testClock) {
	t.Helper()

	models := append(Models(), &member.Member{})
	db := testutil.NewTestDB(t, models...)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}

	svc := &Service{
		db:     db,
		node:   node,
		loader: staticLoader{p: pol},
		fraud:  newFraudFilter(db, clock.Now),
		now:    clock.Now,
	}

	return svc, db, clock
}

func seedMember(t *testing.T, db *gorm.DB, id string, total, pending int64) {
	t.Helper()
	require.NoError(t, db.Create(&member.Member{
		ID:             id,
		TotalEarned:    total,
		PendingRewards: pending,
	}).Error)
}

func TestAwardAmountComesFromPolicy(t *testing.T) {
	svc, db, _ := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	res, err := svc.Award(context.Background(), Action{
		MemberID:  "m1",
		Kind:      policy.KindLike,
		ContentID: "v1",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(200), res.Amount)

	var tx RewardTransaction
	require.NoError(t, db.Where("member_id = ?", "m1").First(&tx).Error)
	require.Equal(t, int64(200), tx.Amount)
	require.Equal(t, policy.KindLike, tx.Kind)
	require.NotEmpty(t, tx.Reference)
	require.False(t, tx.Claimed)
}

func TestAwardViewDedupWindow(t *testing.T) {
	svc, db, clock := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	action := Action{MemberID: "m1", Kind: policy.KindView, ContentID: "v1"}

	first, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.True(t, first.Success)

	// repeat inside the window: rejected, nothing earned
	clock.Advance(30 * time.Second)
	second, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.False(t, second.Success)
	require.Equal(t, ReasonDuplicateView, second.Reason)
	require.Zero(t, second.Amount)

	var m member.Member
	require.NoError(t, db.Where("id = ?", "m1").First(&m).Error)
	require.Equal(t, int64(100), m.TotalEarned)

	// repeat outside the window: a legitimate re-view earns again
	clock.Advance(ViewDedupWindow)
	third, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.True(t, third.Success)
}

func TestAwardViewDedupIsPerContent(t *testing.T) {
	svc, db, _ := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	first, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindView, ContentID: "v1"})
	require.NoError(t, err)
	require.True(t, first.Success)

	other, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindView, ContentID: "v2"})
	require.NoError(t, err)
	require.True(t, other.Success)
}

func TestAwardCommentDedupCalendarDay(t *testing.T) {
	svc, db, clock := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	action := Action{MemberID: "m1", Kind: policy.KindComment, Fingerprint: "abc123"}

	first, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.True(t, first.Success)

	// identical fingerprint later the same day is farming
	clock.Advance(6 * time.Hour)
	second, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.False(t, second.Success)
	require.Equal(t, ReasonDuplicateComment, second.Reason)

	// next calendar day the same fingerprint is accepted again
	clock.Advance(24 * time.Hour)
	third, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.True(t, third.Success)
}

func TestAwardDailyCapRejectsAndRollsBack(t *testing.T) {
	pol := policy.DefaultPolicy()
	pol.Amounts[policy.KindView] = 10000

	svc, db, clock := newTestService(t, pol)
	seedMember(t, db, "m1", 500000, 100)

	require.NoError(t, db.Create(&DailyCounter{
		MemberID:          "m1",
		Day:               dayKey(clock.Now()),
		ViewRewardsEarned: 99995,
	}).Error)

	res, err := svc.Award(context.Background(), Action{
		MemberID:  "m1",
		Kind:      policy.KindView,
		ContentID: "v1",
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, ReasonLimitExceeded, res.Reason)

	// the whole transaction rolled back: balance unchanged, no ledger row,
	// no dedup record
	var m member.Member
	require.NoError(t, db.Where("id = ?", "m1").First(&m).Error)
	require.Equal(t, int64(500000), m.TotalEarned)
	require.Equal(t, int64(100), m.PendingRewards)

	var txCount, viewCount int64
	require.NoError(t, db.Model(&RewardTransaction{}).Count(&txCount).Error)
	require.NoError(t, db.Model(&ViewLog{}).Count(&viewCount).Error)
	require.Zero(t, txCount)
	require.Zero(t, viewCount)
}

func TestAwardUploadCapIsCountBased(t *testing.T) {
	pol := policy.DefaultPolicy()
	pol.Caps[policy.CategoryUpload] = 2

	svc, db, _ := newTestService(t, pol)
	seedMember(t, db, "m1", 0, 0)

	for i := 0; i < 2; i++ {
		res, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindUpload})
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	res, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindUpload})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, ReasonLimitExceeded, res.Reason)

	var counter DailyCounter
	require.NoError(t, db.Where("member_id = ?", "m1").First(&counter).Error)
	require.Equal(t, int64(2), counter.UploadsCount)
}

func TestAwardCapResetsAtDayBoundary(t *testing.T) {
	pol := policy.DefaultPolicy()
	pol.Caps[policy.CategoryUpload] = 1

	svc, _, clock := newTestService(t, pol)
	svcDB := svc.db
	seedMember(t, svcDB, "m1", 0, 0)

	first, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindUpload})
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindUpload})
	require.NoError(t, err)
	require.False(t, second.Success)

	// new UTC day, new counter row
	clock.Advance(24 * time.Hour)
	third, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindUpload})
	require.NoError(t, err)
	require.True(t, third.Success)
}

func TestAwardUncappedKinds(t *testing.T) {
	svc, db, _ := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	for _, kind := range []policy.Kind{policy.KindSignup, policy.KindWalletConnect, policy.KindFirstUpload} {
		res, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: kind})
		require.NoError(t, err)
		require.True(t, res.Success, "kind %s should be uncapped", kind)
	}

	var counterCount int64
	require.NoError(t, db.Model(&DailyCounter{}).Count(&counterCount).Error)
	require.Zero(t, counterCount)
}

func TestAwardBalanceInvariant(t *testing.T) {
	svc, db, _ := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	var runningTotal int64
	for _, a := range []Action{
		{MemberID: "m1", Kind: policy.KindView, ContentID: "v1"},
		{MemberID: "m1", Kind: policy.KindLike, ContentID: "v1"},
		{MemberID: "m1", Kind: policy.KindShare, ContentID: "v1"},
	} {
		res, err := svc.Award(context.Background(), a)
		require.NoError(t, err)
		require.True(t, res.Success)

		runningTotal += res.Amount
		require.Equal(t, runningTotal, res.NewTotal)

		var m member.Member
		require.NoError(t, db.Where("id = ?", "m1").First(&m).Error)
		require.Equal(t, runningTotal, m.TotalEarned)
		require.LessOrEqual(t, m.PendingRewards, m.TotalEarned)
	}
}

func TestAwardSignupMilestone(t *testing.T) {
	svc, db, _ := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	res, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindSignup})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(50000), res.NewTotal)

	// only the highest crossed threshold is reported
	require.NotNil(t, res.Milestone)
	require.Equal(t, int64(10000), *res.Milestone)
}

func TestAwardNoMilestone(t *testing.T) {
	pol := policy.DefaultPolicy()
	pol.Amounts[policy.KindView] = 3

	svc, db, _ := newTestService(t, pol)
	seedMember(t, db, "m1", 5, 5)

	res, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindView, ContentID: "v1"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Nil(t, res.Milestone)
}

func TestAwardDuplicateSession(t *testing.T) {
	svc, db, clock := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)

	action := Action{MemberID: "m1", Kind: policy.KindView, ContentID: "v1", SessionID: "sess-1"}

	first, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.True(t, first.Success)

	// same idempotency token is rejected even outside the dedup window
	clock.Advance(10 * time.Minute)
	second, err := svc.Award(context.Background(), action)
	require.NoError(t, err)
	require.False(t, second.Success)
	require.Equal(t, ReasonDuplicateSession, second.Reason)
}

func TestAwardUnconfiguredKind(t *testing.T) {
	pol := policy.Policy{
		Amounts: map[policy.Kind]int64{policy.KindView: 100},
		Caps:    map[policy.Category]int64{},
	}
	svc, db, _ := newTestService(t, pol)
	seedMember(t, db, "m1", 0, 0)

	_, err := svc.Award(context.Background(), Action{MemberID: "m1", Kind: policy.KindLike, ContentID: "v1"})
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusBadRequest, be.Status())
}

func TestAwardProfileNotFound(t *testing.T) {
	svc, _, _ := newTestService(t, policy.DefaultPolicy())

	_, err := svc.Award(context.Background(), Action{MemberID: "ghost", Kind: policy.KindView, ContentID: "v1"})
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestListTransactions(t *testing.T) {
	svc, db, _ := newTestService(t, policy.DefaultPolicy())
	seedMember(t, db, "m1", 0, 0)
	seedMember(t, db, "m2", 0, 0)

	for _, id := range []string{"m1", "m2"} {
		res, err := svc.Award(context.Background(), Action{MemberID: id, Kind: policy.KindSignup})
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	rows, err := svc.ListTransactions(context.Background(), "m1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "m1", rows[0].MemberID)
}
