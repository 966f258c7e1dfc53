package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	oppdomain "github.com/rahul-biziquick/BiziQuick/internal/opportunity/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/quote/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/quote/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

// OpportunityGetter resolves opportunities for reference validation.
type OpportunityGetter interface {
	GetByID(ctx context.Context, id int64) (*oppdomain.Opportunity, error)
}

// PolicyEvaluator decides cross-tenant access.
type PolicyEvaluator interface {
	EvaluateTenantAccess(ctx context.Context, actor tenantaccess.Actor, targetTenantID string) (bool, error)
}

// QuoteHandler exposes tenant-scoped quote CRUD.
type QuoteHandler struct {
	Repo          repository.Repository
	Opportunities OpportunityGetter
	Policy        PolicyEvaluator
}

// NewQuoteHandler creates the handler set.
func NewQuoteHandler(repo repository.Repository, opportunities OpportunityGetter, policy PolicyEvaluator) *QuoteHandler {
	return &QuoteHandler{Repo: repo, Opportunities: opportunities, Policy: policy}
}

// RegisterRoutes mounts the quote endpoints. The group must already run the
// auth middleware.
func (h *QuoteHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/quotes", h.Create)
	r.GET("/quotes", h.List)
	r.GET("/quotes/:id", h.Get)
	r.PUT("/quotes/:id", h.Update)
}

func (h *QuoteHandler) authorize(c *gin.Context, tenantID string) (tenantaccess.Actor, bool) {
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

// Create adds a quote referencing an opportunity in the same tenant.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req struct {
		TenantID      string `json:"tenantId"`
		OpportunityID int64  `json:"opportunityId" binding:"required"`
		PDFURL        string `json:"pdfUrl"`
		Status        string `json:"status"`
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

	opp, err := h.Opportunities.GetByID(c.Request.Context(), req.OpportunityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if opp == nil || opp.TenantID != tenantID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "opportunity does not exist in this tenant"})
		return
	}
	status := domain.Status(req.Status)
	if req.Status == "" {
		status = domain.StatusDraft
	}
	if !domain.StatusValid(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	now := time.Now().UTC()
	quote := &domain.Quote{
		TenantID:      tenantID,
		OpportunityID: req.OpportunityID,
		PDFURL:        req.PDFURL,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Repo.Create(c.Request.Context(), quote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, quoteBody(quote))
}

// List returns the tenant's quotes.
func (h *QuoteHandler) List(c *gin.Context) {
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
	quotes, err := h.Repo.ListByTenant(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	out := make([]gin.H, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, quoteBody(q))
	}
	c.JSON(http.StatusOK, gin.H{"quotes": out})
}

// Get returns a single quote.
func (h *QuoteHandler) Get(c *gin.Context) {
	quote, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, quoteBody(quote))
}

// Update changes the pdf URL and status.
func (h *QuoteHandler) Update(c *gin.Context) {
	quote, ok := h.fetch(c)
	if !ok {
		return
	}
	var req struct {
		PDFURL *string `json:"pdfUrl"`
		Status *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		if !domain.StatusValid(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		quote.Status = status
	}
	if req.PDFURL != nil {
		quote.PDFURL = *req.PDFURL
	}
	quote.UpdatedAt = time.Now().UTC()
	if err := h.Repo.Update(c.Request.Context(), quote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, quoteBody(quote))
}

func (h *QuoteHandler) fetch(c *gin.Context) (*domain.Quote, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote id"})
		return nil, false
	}
	quote, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
		return nil, false
	}
	if _, ok := h.authorize(c, quote.TenantID); !ok {
		return nil, false
	}
	return quote, true
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

func quoteBody(q *domain.Quote) gin.H {
	return gin.H{
		"id":            q.ID,
		"tenantId":      q.TenantID,
		"opportunityId": q.OpportunityID,
		"pdfUrl":        q.PDFURL,
		"status":        q.Status,
		"createdAt":     q.CreatedAt,
		"updatedAt":     q.UpdatedAt,
	}
}
