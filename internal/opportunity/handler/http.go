package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	leaddomain "github.com/rahul-biziquick/BiziQuick/internal/lead/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/opportunity/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/opportunity/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

// LeadGetter resolves leads for reference validation.
type LeadGetter interface {
	GetByID(ctx context.Context, id int64) (*leaddomain.Lead, error)
}

// PolicyEvaluator decides cross-tenant access.
type PolicyEvaluator interface {
	EvaluateTenantAccess(ctx context.Context, actor tenantaccess.Actor, targetTenantID string) (bool, error)
}

// OpportunityHandler exposes tenant-scoped opportunity CRUD.
type OpportunityHandler struct {
	Repo   repository.Repository
	Leads  LeadGetter
	Policy PolicyEvaluator
}

// NewOpportunityHandler creates the handler set.
func NewOpportunityHandler(repo repository.Repository, leads LeadGetter, policy PolicyEvaluator) *OpportunityHandler {
	return &OpportunityHandler{Repo: repo, Leads: leads, Policy: policy}
}

// RegisterRoutes mounts the opportunity endpoints. The group must already
// run the auth middleware.
func (h *OpportunityHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/opportunities", h.Create)
	r.GET("/opportunities", h.List)
	r.GET("/opportunities/:id", h.Get)
	r.PUT("/opportunities/:id", h.Update)
}

func (h *OpportunityHandler) authorize(c *gin.Context, tenantID string) (tenantaccess.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return actor, false
	}
	allowed, err := h.Policy.EvaluateTenantAccess(c.Request.Context(), actor, tenantID)
	if err != nil {
		allowed = tenantaccess.Allowed(actor, tenantID)
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "cross-tenant access denied"})
		return actor, false
	}
	return actor, true
}

// Create adds an opportunity referencing a live lead in the same tenant.
func (h *OpportunityHandler) Create(c *gin.Context) {
	var req struct {
		TenantID string  `json:"tenantId"`
		LeadID   int64   `json:"leadId" binding:"required"`
		Stage    string  `json:"stage"`
		Value    float64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = actor.TenantID
	}
	if _, ok := h.authorize(c, tenantID); !ok {
		return
	}

	lead, err := h.Leads.GetByID(c.Request.Context(), req.LeadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if lead == nil || lead.Archived || lead.TenantID != tenantID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lead does not exist in this tenant"})
		return
	}
	stage := domain.Stage(req.Stage)
	if req.Stage == "" {
		stage = domain.StageProspecting
	}
	if !domain.StageValid(stage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stage"})
		return
	}

	now := time.Now().UTC()
	opp := &domain.Opportunity{
		TenantID:  tenantID,
		LeadID:    req.LeadID,
		Stage:     stage,
		Value:     req.Value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Repo.Create(c.Request.Context(), opp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, opportunityBody(opp))
}

// List returns the tenant's opportunities.
func (h *OpportunityHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		tenantID = actor.TenantID
	}
	if _, ok := h.authorize(c, tenantID); !ok {
		return
	}
	limit, offset := pagination(c)
	opps, err := h.Repo.ListByTenant(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	out := make([]gin.H, 0, len(opps))
	for _, o := range opps {
		out = append(out, opportunityBody(o))
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": out})
}

// Get returns a single opportunity.
func (h *OpportunityHandler) Get(c *gin.Context) {
	opp, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, opportunityBody(opp))
}

// Update changes the stage and value.
func (h *OpportunityHandler) Update(c *gin.Context) {
	opp, ok := h.fetch(c)
	if !ok {
		return
	}
	var req struct {
		Stage *string  `json:"stage"`
		Value *float64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Stage != nil {
		stage := domain.Stage(*req.Stage)
		if !domain.StageValid(stage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stage"})
			return
		}
		opp.Stage = stage
	}
	if req.Value != nil {
		opp.Value = *req.Value
	}
	opp.UpdatedAt = time.Now().UTC()
	if err := h.Repo.Update(c.Request.Context(), opp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, opportunityBody(opp))
}

// fetch loads the opportunity from the path id and enforces tenant access.
func (h *OpportunityHandler) fetch(c *gin.Context) (*domain.Opportunity, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
		return nil, false
	}
	opp, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	if opp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "opportunity not found"})
		return nil, false
	}
	if _, ok := h.authorize(c, opp.TenantID); !ok {
		return nil, false
	}
	return opp, true
}

func pagination(c *gin.Context) (limit, offset int32) {
	limit = 10
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil && v > 0 {
			limit = int32(v)
		}
	}
	if limit > 100 {
		limit = 100
	}
	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil && v > 1 {
			offset = (int32(v) - 1) * limit
		}
	}
	return limit, offset
}

func opportunityBody(o *domain.Opportunity) gin.H {
	return gin.H{
		"id":        o.ID,
		"tenantId":  o.TenantID,
		"leadId":    o.LeadID,
		"stage":     o.Stage,
		"value":     o.Value,
		"createdAt": o.CreatedAt,
		"updatedAt": o.UpdatedAt,
	}
}
