package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardenbot/warden/internal/server/auth"
	"github.com/wardenbot/warden/internal/server/handlers/api"
)

type AuthHandler struct {
	authSvc *auth.AuthService
}

func New(svc *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		authSvc: svc,
	}
}

type TokenRequest struct {
	AdminKey string `json:"admin_key" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Token exchanges the configured admin key for a token pair.
func (h *AuthHandler) Token(ctx *gin.Context) {
	var req TokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	accessToken, refreshToken, err := h.authSvc.GenerateTokens(ctx.Request.Context(), req.AdminKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAdminKey) {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeAuthTokenGenerationFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Refresh redeems a one-time refresh token for a new pair.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	accessToken, refreshToken, err := h.authSvc.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthTokenRefreshFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
