package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/whatsapp"
)

type nicheRequest struct {
	Name        string `json:"name" binding:"required,max=80"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type categoryRequest struct {
	NicheID string `json:"nicheId" binding:"required,uuid"`
	Name    string `json:"name" binding:"required,max=80"`
	Color   string `json:"color"`
}

type templateRequest struct {
	CategoryID      string `json:"categoryId" binding:"required,uuid"`
	Name            string `json:"name" binding:"required,max=120"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration" binding:"required,min=5,max=720"`
}

type providerServiceRequest struct {
	TemplateID      string `json:"serviceTemplateId" binding:"required,uuid"`
	PriceCents      int64  `json:"price" binding:"gte=0"`
	DurationMinutes int    `json:"duration" binding:"omitempty,min=5,max=720"`
}

type providerServiceUpdate struct {
	PriceCents      *int64 `json:"price" binding:"omitempty,gte=0"`
	DurationMinutes *int   `json:"duration" binding:"omitempty,min=5,max=720"`
	IsActive        *bool  `json:"isActive"`
}

func (h *Handler) ListNiches(c *gin.Context) {
	out, err := h.store.ListNiches(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) CreateNiche(c *gin.Context) {
	var req nicheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	n := &model.Niche{ID: uuid.NewString(), Name: req.Name, Description: req.Description, Icon: req.Icon}
	if err := h.store.CreateNiche(c.Request.Context(), n); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListCategories(c *gin.Context) {
	out, err := h.store.ListCategories(c.Request.Context(), c.Query("nicheId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	cat := &model.Category{ID: uuid.NewString(), NicheID: req.NicheID, Name: req.Name, Color: req.Color}
	if err := h.store.CreateCategory(c.Request.Context(), cat); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) ListServiceTemplates(c *gin.Context) {
	out, err := h.store.ListServiceTemplates(c.Request.Context(), c.Query("categoryId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) CreateServiceTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	t := &model.ServiceTemplate{
		ID:              uuid.NewString(),
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if err := h.store.CreateServiceTemplate(c.Request.Context(), t); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListProviders(c *gin.Context) {
	out, err := h.store.ListProviders(c.Request.Context(), c.Query("categoryId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) ProviderServices(c *gin.Context) {
	out, err := h.store.ListProviderServices(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) MyServices(c *gin.Context) {
	out, err := h.store.ListProviderServices(c.Request.Context(), middleware.UserID(c), false)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) CreateProviderService(c *gin.Context) {
	var req providerServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	ctx := c.Request.Context()

	tpl, err := h.store.ServiceTemplate(ctx, req.TemplateID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !tpl.IsActive {
		abort(c, http.StatusUnprocessableEntity, "service template is inactive")
		return
	}
	dur := req.DurationMinutes
	if dur == 0 {
		dur = tpl.DurationMinutes
	}
	p := &model.ProviderService{
		ID:              uuid.NewString(),
		ProviderID:      middleware.UserID(c),
		TemplateID:      tpl.ID,
		Name:            tpl.Name,
		CategoryID:      tpl.CategoryID,
		PriceCents:      req.PriceCents,
		DurationMinutes: dur,
		IsActive:        true,
	}
	if err := h.store.CreateProviderService(ctx, p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProviderService(c *gin.Context) {
	var req providerServiceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, err)
		return
	}
	ctx := c.Request.Context()

	p, err := h.store.ProviderService(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if p.ProviderID != middleware.UserID(c) {
		abort(c, http.StatusNotFound, "not found")
		return
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}
	if req.DurationMinutes != nil {
		p.DurationMinutes = *req.DurationMinutes
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.store.UpdateProviderService(ctx, p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProviderService(c *gin.Context) {
	if err := h.store.DeleteProviderService(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// WhatsAppLink returns a wa.me link that opens a chat with the provider.
func (h *Handler) WhatsAppLink(c *gin.Context) {
	u, err := h.store.UserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if u.Role != model.RoleProvider || !u.IsActive {
		abort(c, http.StatusNotFound, "not found")
		return
	}
	url, err := whatsapp.Link(u.Phone, c.Query("text"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// nonNil keeps empty lists as [] in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
