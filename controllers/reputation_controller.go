package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/engage/services"
	"github.com/cppla/engage/utils"
)

const maxLessonKeyLen = 64

// ReputationController serves points, levels and the event history.
type ReputationController struct {
	reputation *services.ReputationLedger
}

// NewReputationController creates a ReputationController.
func NewReputationController(svc *services.Services) *ReputationController {
	return &ReputationController{reputation: svc.Reputation}
}

// Reputation returns a user's points and level. The event history is only
// included for the user themselves and for staff.
func (r *ReputationController) Reputation(ctx *gin.Context) {
	target, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	viewer, ok := currentUser(ctx)
	if !ok {
		return
	}

	points, level, err := r.reputation.Points(ctx.Request.Context(), target)
	if err != nil {
		respondError(ctx, err)
		return
	}
	out := gin.H{"user_id": target, "points": points, "level": level}

	if viewer.ID == target || viewer.Role.IsStaff() {
		limit, _ := strconv.Atoi(ctx.Query("limit"))
		events, err := r.reputation.History(ctx.Request.Context(), target, limit)
		if err != nil {
			respondError(ctx, err)
			return
		}
		out["history"] = events
	}
	utils.Success(ctx, out)
}

// CompleteLesson awards the lesson bonus once per user and lesson. Users mark
// their own lessons; staff may mark them for anyone.
func (r *ReputationController) CompleteLesson(ctx *gin.Context) {
	target, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	lesson := strings.TrimSpace(ctx.Param("lesson"))
	if lesson == "" || len(lesson) > maxLessonKeyLen {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid lesson")
		return
	}
	viewer, ok := currentUser(ctx)
	if !ok {
		return
	}
	if viewer.ID != target && !viewer.Role.IsStaff() {
		respondError(ctx, services.ErrForbidden)
		return
	}

	if _, err := r.reputation.AwardLessonCompletion(ctx.Request.Context(), target, lesson); err != nil {
		respondError(ctx, err)
		return
	}
	points, level, err := r.reputation.Points(ctx.Request.Context(), target)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": target, "lesson": lesson, "points": points, "level": level})
}

// Recompute rebuilds a user's points from the event log. Staff only.
func (r *ReputationController) Recompute(ctx *gin.Context) {
	target, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if !requireStaff(ctx) {
		return
	}
	points, err := r.reputation.Recompute(ctx.Request.Context(), target)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": target, "points": points})
}
