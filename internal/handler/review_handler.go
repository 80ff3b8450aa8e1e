package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
)

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// CreateReview lets the client rate a completed appointment once.
func (h *Handler) CreateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	a, ok := h.visible(c, c.Param("id"))
	if !ok {
		return
	}
	if a.ClientID != middleware.UserID(c) {
		abort(c, http.StatusForbidden, "only the client can review")
		return
	}
	if a.Status != model.StatusCompleted {
		abort(c, http.StatusConflict, "only completed appointments can be reviewed")
		return
	}
	r := &model.Review{
		ID:            uuid.NewString(),
		AppointmentID: a.ID,
		ClientID:      a.ClientID,
		ProviderID:    a.ProviderID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}
	// unique on appointment_id, a second review is ErrConflict
	if err := h.store.CreateReview(c.Request.Context(), r); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) ProviderReviews(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	list, err := h.store.ListReviews(ctx, id, queryInt(c, "limit", 20, 100))
	if err != nil {
		h.fail(c, err)
		return
	}
	rating, err := h.store.ProviderRating(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": nonNil(list), "rating": rating})
}
