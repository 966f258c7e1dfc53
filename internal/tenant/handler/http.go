package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/tenant/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

// TenantHandler exposes tenant administration endpoints.
type TenantHandler struct {
	Repo repository.Repository
}

// NewTenantHandler creates the handler set.
func NewTenantHandler(repo repository.Repository) *TenantHandler {
	return &TenantHandler{Repo: repo}
}

// RegisterRoutes mounts the tenant endpoints. The group must already run the
// auth middleware.
func (h *TenantHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/tenants", h.Create)
	r.GET("/tenants", h.List)
	r.GET("/tenants/:id", h.Get)
}

// Create registers a new tenant. Only SUPER_ADMIN and platform accounts
// (no tenant of their own) may create tenants.
func (h *TenantHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if actor.TenantID != "" && actor.Role != tenantaccess.RoleSuperAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "tenant creation requires a platform account"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	plan := req.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	switch plan {
	case domain.PlanFree, domain.PlanPro, domain.PlanEnterprise:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Plan:      plan,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Repo.Create(c.Request.Context(), tenant); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, tenantBody(tenant))
}

// List returns registered tenants. Platform accounts see all tenants; tenant
// members only their own.
func (h *TenantHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if actor.TenantID != "" && actor.Role != tenantaccess.RoleSuperAdmin {
		tenant, err := h.Repo.GetByID(c.Request.Context(), actor.TenantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		out := []gin.H{}
		if tenant != nil {
			out = append(out, tenantBody(tenant))
		}
		c.JSON(http.StatusOK, gin.H{"tenants": out})
		return
	}

	list, err := h.Repo.List(c.Request.Context(), 100, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, t := range list {
		out = append(out, tenantBody(t))
	}
	c.JSON(http.StatusOK, gin.H{"tenants": out})
}

// Get returns a single tenant by id, subject to the cross-tenant rule.
func (h *TenantHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	id := c.Param("id")
	if !tenantaccess.Allowed(actor, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cross-tenant access denied"})
		return
	}
	tenant, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if tenant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}
	c.JSON(http.StatusOK, tenantBody(tenant))
}

func tenantBody(t *domain.Tenant) gin.H {
	return gin.H{
		"id":        t.ID,
		"name":      t.Name,
		"plan":      t.Plan,
		"status":    t.Status,
		"createdAt": t.CreatedAt,
		"updatedAt": t.UpdatedAt,
	}
}
