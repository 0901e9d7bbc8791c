package policy

import (
	"net/http"

	"streamrewards/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service exposes the admin surface for the reward policy tables.
type Service struct {
	db     *gorm.DB
	loader Loader
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Loader Loader
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		loader: p.Loader,
	}
}

// GetPolicy renders the policy exactly as the award engine would resolve it.
func (s *Service) GetPolicy(c *gin.Context) {
	p := s.loader.Load(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"amounts": p.Amounts,
		"caps":    p.Caps,
	})
}

type upsertScheduleRequest struct {
	Kind   string `json:"kind" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

func (s *Service) UpsertSchedule(c *gin.Context) {
	var req upsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Invalid request body", err))
		return
	}

	kind, ok := ParseKind(req.Kind)
	if !ok {
		c.Error(errutil.BadRequest("Invalid reward type", nil))
		return
	}

	if req.Amount <= 0 {
		c.Error(errutil.BadRequest("Amount must be positive", nil))
		return
	}

	entry := ScheduleEntry{Kind: kind, Amount: req.Amount}
	if err := s.db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&entry).Error; err != nil {
		zap.L().Error("failed to upsert schedule entry", zap.String("kind", req.Kind), zap.Error(err))
		c.Error(errutil.Internal("Database error", err))
		return
	}

	c.JSON(http.StatusOK, entry)
}

type upsertLimitRequest struct {
	Category string `json:"category" binding:"required"`
	Cap      int64  `json:"cap" binding:"required"`
}

func (s *Service) UpsertLimit(c *gin.Context) {
	var req upsertLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Invalid request body", err))
		return
	}

	category := Category(req.Category)
	switch category {
	case CategoryView, CategoryComment, CategoryUpload:
	default:
		c.Error(errutil.BadRequest("Invalid limit category", nil))
		return
	}

	if req.Cap <= 0 {
		c.Error(errutil.BadRequest("Cap must be positive", nil))
		return
	}

	limit := DailyLimit{Category: category, Cap: req.Cap}
	if err := s.db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"cap", "updated_at"}),
	}).Create(&limit).Error; err != nil {
		zap.L().Error("failed to upsert daily limit", zap.String("category", req.Category), zap.Error(err))
		c.Error(errutil.Internal("Database error", err))
		return
	}

	c.JSON(http.StatusOK, limit)
}
