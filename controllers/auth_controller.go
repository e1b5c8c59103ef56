package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/engage/middleware"
	"github.com/cppla/engage/models"
	"github.com/cppla/engage/services"
	"github.com/cppla/engage/utils"
)

const tokenTTL = 72 * time.Hour

// AuthController handles registration, sessions and profile writes.
type AuthController struct {
	moderation *services.Moderation
}

// NewAuthController creates an AuthController.
func NewAuthController(svc *services.Services) *AuthController {
	return &AuthController{moderation: svc.Moderation}
}

// Register creates an account. Members wait for approval before they can post.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Bio      string `json:"bio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	if !utils.RegistrationCooldownTry(ctx.ClientIP()) {
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "please wait before registering again")
		return
	}

	user, err := a.moderation.Register(ctx.Request.Context(), req.Email, services.Profile{
		Username: req.Username,
		Password: req.Password,
		Bio:      req.Bio,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	utils.Created(ctx, gin.H{
		"user":              privateUser(*user),
		"requires_approval": user.ApprovalStatus == models.ApprovalPending,
	})
}

// Login verifies credentials and issues a JWT. Banned accounts are refused.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.moderation.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Logger.Error("sign token", zap.Uint("user_id", user.ID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  privateUser(*user),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, privateUser(*user))
}

// UpdateProfile writes /users/:id/profile. Users may change their own name
// and bio; role and approval status can only be set on someone else, by an admin.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	targetID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	actorID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req struct {
		Username       *string `json:"username"`
		Bio            *string `json:"bio"`
		Role           *string `json:"role"`
		ApprovalStatus *string `json:"approval_status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	upd := services.ProfileUpdate{Username: req.Username, Bio: req.Bio}
	if req.Role != nil {
		role := models.Role(*req.Role)
		upd.Role = &role
	}
	if req.ApprovalStatus != nil {
		status := models.ApprovalStatus(*req.ApprovalStatus)
		upd.ApprovalStatus = &status
	}

	user, err := a.moderation.UpdateProfile(ctx.Request.Context(), targetID, actorID, upd)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if targetID == actorID {
		utils.Success(ctx, privateUser(*user))
		return
	}
	utils.Success(ctx, publicUser(*user))
}
