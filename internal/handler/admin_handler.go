package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
)

type userFlags struct {
	IsActive   *bool `json:"isActive"`
	IsVerified *bool `json:"isVerified"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	role := model.Role(c.Query("type"))
	if role != "" && !role.Valid() {
		abort(c, http.StatusBadRequest, "invalid user type")
		return
	}
	out, err := h.store.ListUsers(c.Request.Context(), role, queryInt(c, "limit", 50, 200), queryInt(c, "offset", 0, 1<<20))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req userFlags
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	if req.IsActive == nil && req.IsVerified == nil {
		abort(c, http.StatusBadRequest, "nothing to update")
		return
	}
	id := c.Param("id")
	if id == middleware.UserID(c) && req.IsActive != nil && !*req.IsActive {
		abort(c, http.StatusBadRequest, "cannot deactivate yourself")
		return
	}
	u, err := h.store.SetUserFlags(c.Request.Context(), id, req.IsActive, req.IsVerified)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("user flags changed", zap.String("user_id", u.ID), zap.String("admin_id", middleware.UserID(c)))
	c.JSON(http.StatusOK, u)
}
