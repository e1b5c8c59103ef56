package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/engage/models"
	"github.com/cppla/engage/services"
	"github.com/cppla/engage/utils"
)

// ModerationController exposes approval, roles, bans and counter repair.
// Authority is checked by the services against the stored role of the caller.
type ModerationController struct {
	moderation *services.Moderation
	counters   *services.CounterLedger
}

// NewModerationController creates a ModerationController.
func NewModerationController(svc *services.Services) *ModerationController {
	return &ModerationController{moderation: svc.Moderation, counters: svc.Counters}
}

// targetAndActor reads the :id target and the authenticated caller.
func targetAndActor(ctx *gin.Context) (target, actor uint, ok bool) {
	if target, ok = paramID(ctx, "id"); !ok {
		return 0, 0, false
	}
	if actor, ok = getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return 0, 0, false
	}
	return target, actor, true
}

// SetApproval approves or rejects a pending registration.
func (m *ModerationController) SetApproval(ctx *gin.Context) {
	target, actor, ok := targetAndActor(ctx)
	if !ok {
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	decision := models.ApprovalStatus(req.Decision)
	if err := m.moderation.SetApproval(ctx.Request.Context(), target, actor, decision); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": target, "approval_status": decision})
}

// SetRole changes a user's role.
func (m *ModerationController) SetRole(ctx *gin.Context) {
	target, actor, ok := targetAndActor(ctx)
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}

	role := models.Role(req.Role)
	if err := m.moderation.SetRole(ctx.Request.Context(), target, actor, role); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": target, "role": role})
}

// Ban kicks a user, or bans them for good when permanent is set.
func (m *ModerationController) Ban(ctx *gin.Context) {
	target, actor, ok := targetAndActor(ctx)
	if !ok {
		return
	}
	var req struct {
		Permanent       bool   `json:"permanent"`
		Reason          string `json:"reason"`
		DurationMinutes int    `json:"duration_minutes" binding:"min=0"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid request payload")
		return
	}

	err := m.moderation.BanUser(ctx.Request.Context(), target, actor, services.BanOptions{
		Permanent: req.Permanent,
		Reason:    utils.SanitizePlain(req.Reason),
		Duration:  time.Duration(req.DurationMinutes) * time.Minute,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": target, "access_state": models.AccessBanned, "permanent": req.Permanent})
}

// Unban lifts every active ban of a user.
func (m *ModerationController) Unban(ctx *gin.Context) {
	target, actor, ok := targetAndActor(ctx)
	if !ok {
		return
	}
	if err := m.moderation.Unban(ctx.Request.Context(), target, actor); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": target, "access_state": models.AccessActive})
}

// Bans lists the ban history of a user. Staff only.
func (m *ModerationController) Bans(ctx *gin.Context) {
	target, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if !requireStaff(ctx) {
		return
	}
	bans, err := m.moderation.Bans(ctx.Request.Context(), target)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": bans})
}

// DeleteAccount soft deletes a user.
func (m *ModerationController) DeleteAccount(ctx *gin.Context) {
	target, actor, ok := targetAndActor(ctx)
	if !ok {
		return
	}
	if err := m.moderation.DeleteAccount(ctx.Request.Context(), target, actor); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": target, "deleted": true})
}

// LiftDenyList lets an email register again without touching any account.
func (m *ModerationController) LiftDenyList(ctx *gin.Context) {
	actor, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid request payload")
		return
	}
	if err := m.moderation.LiftDenyList(ctx.Request.Context(), req.Email, actor); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"email": models.NormalizeEmail(req.Email), "denied": false})
}

// Reconcile recounts a post's likes, comments and replies and repairs drift.
func (m *ModerationController) Reconcile(ctx *gin.Context) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if !requireStaff(ctx) {
		return
	}
	drifts, err := m.counters.Reconcile(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if len(drifts) > 0 {
		utils.InvalidatePost(postID)
	} else {
		drifts = []services.Drift{}
	}
	utils.Success(ctx, gin.H{"post_id": postID, "repaired": drifts})
}

func requireStaff(ctx *gin.Context) bool {
	user, ok := currentUser(ctx)
	if !ok {
		return false
	}
	if !user.Role.IsStaff() {
		respondError(ctx, services.ErrForbidden)
		return false
	}
	return true
}
