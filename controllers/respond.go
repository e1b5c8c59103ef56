package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/engage/middleware"
	"github.com/cppla/engage/models"
	"github.com/cppla/engage/services"
	"github.com/cppla/engage/utils"
)

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// respondError writes err in the standard envelope. Domain errors keep their
// own code; anything else is a store failure the client may retry.
func respondError(ctx *gin.Context, err error) {
	var de *services.Error
	if errors.As(err, &de) {
		utils.Error(ctx, statusFor(de.Kind), de.Code, de.Message)
		return
	}
	switch kind := services.KindOf(err); kind {
	case services.KindNotFound:
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	case services.KindConflict:
		utils.Error(ctx, http.StatusConflict, 40900, "conflicting write")
	default:
		utils.Logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", ctx.GetString("request_id")),
			zap.Error(err))
		utils.Error(ctx, http.StatusServiceUnavailable, 50300, "service temporarily unavailable")
	}
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

// paramID reads a positive numeric path parameter, answering 400 otherwise.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid "+name)
		return 0, false
	}
	return uint(n), true
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// currentUser is the account loaded by the auth middleware for this request.
func currentUser(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(middleware.ContextUserKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return nil, false
	}
	u, ok := value.(*models.User)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
	}
	return u, ok
}

func publicUser(u models.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"bio":             u.Bio,
		"role":            u.Role,
		"approval_status": u.ApprovalStatus,
		"access_state":    u.AccessState,
		"points":          u.Points,
		"level":           u.Level,
		"created_at":      u.CreatedAt,
	}
}

// privateUser adds what only the account owner may see.
func privateUser(u models.User) gin.H {
	h := publicUser(u)
	h["email"] = u.Email
	return h
}
