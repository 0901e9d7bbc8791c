package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"streamrewards/pkg/middleware"
	"streamrewards/services/testutil"
)

type stubVerifier struct{}

func (stubVerifier) Verify(credential string) (string, error) {
	if credential != "admin-token" {
		return "", errors.New("verification failed")
	}
	return "admin-1", nil
}

func newPolicyRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t, &ScheduleEntry{}, &DailyLimit{})
	svc := NewService(ServiceParams{DB: db, Loader: NewLoader(db)})

	engine := gin.New()
	admin := engine.Group("/policy", middleware.Auth(stubVerifier{}), middleware.Error())
	admin.GET("", svc.GetPolicy)
	admin.PUT("/schedule", svc.UpsertSchedule)
	admin.PUT("/limits", svc.UpsertLimit)

	return engine, db
}

func put(engine *gin.Engine, token, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestPolicyMutationRequiresAuth(t *testing.T) {
	engine, db := newPolicyRouter(t)

	w := put(engine, "", "/policy/schedule", map[string]any{"kind": "VIEW", "amount": 1000000})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = put(engine, "forged-token", "/policy/schedule", map[string]any{"kind": "VIEW", "amount": 1000000})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = put(engine, "", "/policy/limits", map[string]any{"category": "VIEW_GROUP", "cap": 1})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// nothing was written
	var scheduleCount, limitCount int64
	require.NoError(t, db.Model(&ScheduleEntry{}).Count(&scheduleCount).Error)
	require.NoError(t, db.Model(&DailyLimit{}).Count(&limitCount).Error)
	require.Zero(t, scheduleCount)
	require.Zero(t, limitCount)
}

func TestUpsertScheduleCreatesAndUpdates(t *testing.T) {
	engine, db := newPolicyRouter(t)

	w := put(engine, "admin-token", "/policy/schedule", map[string]any{"kind": "VIEW", "amount": 250})
	require.Equal(t, http.StatusOK, w.Code)

	w = put(engine, "admin-token", "/policy/schedule", map[string]any{"kind": "VIEW", "amount": 300})
	require.Equal(t, http.StatusOK, w.Code)

	var entry ScheduleEntry
	require.NoError(t, db.Where("kind = ?", KindView).First(&entry).Error)
	require.Equal(t, int64(300), entry.Amount)

	var count int64
	require.NoError(t, db.Model(&ScheduleEntry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpsertScheduleRejectsUnknownKind(t *testing.T) {
	engine, _ := newPolicyRouter(t)

	w := put(engine, "admin-token", "/policy/schedule", map[string]any{"kind": "DANCE", "amount": 100})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertLimit(t *testing.T) {
	engine, db := newPolicyRouter(t)

	w := put(engine, "admin-token", "/policy/limits", map[string]any{"category": "VIEW_GROUP", "cap": 5000})
	require.Equal(t, http.StatusOK, w.Code)

	var limit DailyLimit
	require.NoError(t, db.Where("category = ?", CategoryView).First(&limit).Error)
	require.Equal(t, int64(5000), limit.Cap)
}

func TestGetPolicyReflectsOverrides(t *testing.T) {
	engine, db := newPolicyRouter(t)
	require.NoError(t, db.Create(&ScheduleEntry{Kind: KindShare, Amount: 777}).Error)

	req := httptest.NewRequest(http.MethodGet, "/policy", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Amounts map[string]int64 `json:"amounts"`
		Caps    map[string]int64 `json:"caps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(777), resp.Amounts["SHARE"])
	require.Equal(t, int64(100000), resp.Caps["VIEW_GROUP"])
}
