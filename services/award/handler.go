package award

import (
	"net/http"
	"strconv"

	"streamrewards/pkg/errutil"
	"streamrewards/pkg/middleware"
	"streamrewards/services/member"
	"streamrewards/services/policy"

	"github.com/gin-gonic/gin"
)

// Handler is the HTTP surface of the award engine.
type Handler struct {
	svc     *Service
	members *member.Service
}

func NewHandler(svc *Service, members *member.Service) *Handler {
	return &Handler{svc: svc, members: members}
}

type awardRequest struct {
	Type        string `json:"type" binding:"required"`
	VideoID     string `json:"videoId"`
	ContentHash string `json:"contentHash"`
	SessionID   string `json:"sessionId"`
}

// Award handles POST /award. Fraud and limit rejections are routine
// business outcomes returned with HTTP 200 and success=false; only
// authentication, validation and datastore failures surface as error
// status codes.
func (h *Handler) Award(c *gin.Context) {
	memberID := middleware.MemberID(c)
	if memberID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Unauthorized",
		})
		return
	}

	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Invalid reward type", err))
		return
	}

	kind, ok := policy.ParseKind(req.Type)
	if !ok {
		c.Error(errutil.BadRequest("Invalid reward type", nil))
		return
	}

	if kind == policy.KindView && req.VideoID == "" {
		c.Error(errutil.BadRequest("Missing videoId", nil))
		return
	}
	if kind == policy.KindComment && req.ContentHash == "" {
		c.Error(errutil.BadRequest("Missing contentHash", nil))
		return
	}

	ctx := c.Request.Context()

	// A brand-new account has no profile row yet when its signup action
	// arrives; provision lazily. Every other kind requires an existing row.
	if kind == policy.KindSignup {
		if _, err := h.members.Ensure(ctx, memberID); err != nil {
			c.Error(err)
			return
		}
	}

	result, err := h.svc.Award(ctx, Action{
		MemberID:    memberID,
		Kind:        kind,
		ContentID:   req.VideoID,
		Fingerprint: req.ContentHash,
		SessionID:   req.SessionID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Balance handles GET /rewards/balance.
func (h *Handler) Balance(c *gin.Context) {
	memberID := middleware.MemberID(c)

	m, err := h.members.Get(c.Request.Context(), memberID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalEarned":    m.TotalEarned,
		"pendingRewards": m.PendingRewards,
	})
}

// Transactions handles GET /rewards/transactions.
func (h *Handler) Transactions(c *gin.Context) {
	memberID := middleware.MemberID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.svc.ListTransactions(c.Request.Context(), memberID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": rows,
	})
}
