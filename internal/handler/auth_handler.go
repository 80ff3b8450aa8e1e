package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agendo-api/internal/auth"
	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/store"
)

type registerRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8,max=72"`
	Name     string     `json:"name" binding:"required,max=120"`
	Phone    string     `json:"phone" binding:"max=32"`
	UserType model.Role `json:"userType" binding:"omitempty,oneof=client provider"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int         `json:"expiresIn"`
	User         *model.User `json:"user"`
}

// issue mints an access token and a fresh refresh token for u.
func (h *Handler) issue(c *gin.Context, u *model.User) (*tokenResponse, error) {
	tok, err := auth.MakeToken(u.ID, u.Role, h.opts.Secret)
	if err != nil {
		return nil, err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := h.store.CreateRefreshToken(c.Request.Context(), uuid.NewString(), u.ID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		return nil, err
	}
	return &tokenResponse{Token: tok, RefreshToken: raw, ExpiresIn: int(auth.AccessTTL.Seconds()), User: u}, nil
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	if req.UserType == "" {
		req.UserType = model.RoleClient
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         req.UserType,
		IsActive:     true,
	}
	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// don't say whether the email exists
			abort(c, http.StatusConflict, "registration failed")
			return
		}
		h.fail(c, err)
		return
	}

	resp, err := h.issue(c, u)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}

	u, err := h.store.UserByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abort(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.fail(c, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		abort(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !u.IsActive {
		abort(c, http.StatusForbidden, "account disabled")
		return
	}

	resp, err := h.issue(c, u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates the refresh token. Presenting a token that was already
// rotated revokes every token of the user.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	ctx := c.Request.Context()

	old, err := h.store.RefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abort(c, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		h.fail(c, err)
		return
	}
	if old.Revoked {
		h.log.Warn("refresh token reuse", zap.String("user_id", old.UserID))
		if err := h.store.RevokeAllRefreshTokens(ctx, old.UserID); err != nil {
			h.fail(c, err)
			return
		}
		abort(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if time.Now().After(old.ExpiresAt) {
		abort(c, http.StatusUnauthorized, "refresh token expired")
		return
	}

	u, err := h.store.UserByID(ctx, old.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !u.IsActive {
		abort(c, http.StatusForbidden, "account disabled")
		return
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.RotateRefreshToken(ctx, old.ID, uuid.NewString(), u.ID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		if errors.Is(err, store.ErrStale) {
			abort(c, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		h.fail(c, err)
		return
	}
	tok, err := auth.MakeToken(u.ID, u.Role, h.opts.Secret)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: tok, RefreshToken: raw, ExpiresIn: int(auth.AccessTTL.Seconds()), User: u})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.store.RevokeAllRefreshTokens(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CurrentUser(c *gin.Context) {
	u, err := h.store.UserByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
