package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahul-biziquick/BiziQuick/internal/invoice/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/invoice/repository"
	quotedomain "github.com/rahul-biziquick/BiziQuick/internal/quote/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

// QuoteGetter resolves quotes for reference validation.
type QuoteGetter interface {
	GetByID(ctx context.Context, id int64) (*quotedomain.Quote, error)
}

// PolicyEvaluator decides cross-tenant access.
type PolicyEvaluator interface {
	EvaluateTenantAccess(ctx context.Context, actor tenantaccess.Actor, targetTenantID string) (bool, error)
}

// InvoiceHandler exposes tenant-scoped invoice CRUD.
type InvoiceHandler struct {
	Repo   repository.Repository
	Quotes QuoteGetter
	Policy PolicyEvaluator
}

// NewInvoiceHandler creates the handler set.
func NewInvoiceHandler(repo repository.Repository, quotes QuoteGetter, policy PolicyEvaluator) *InvoiceHandler {
	return &InvoiceHandler{Repo: repo, Quotes: quotes, Policy: policy}
}

// RegisterRoutes mounts the invoice endpoints. The group must already run
// the auth middleware.
func (h *InvoiceHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/invoices", h.Create)
	r.GET("/invoices", h.List)
	r.GET("/invoices/:id", h.Get)
	r.PUT("/invoices/:id", h.Update)
}

func (h *InvoiceHandler) authorize(c *gin.Context, tenantID string) (tenantaccess.Actor, bool) {
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

// Create adds an invoice billing a quote in the same tenant. The invoice
// number must be unique within the tenant.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req struct {
		TenantID      string `json:"tenantId"`
		QuoteID       int64  `json:"quoteId" binding:"required"`
		InvoiceNumber string `json:"invoiceNumber" binding:"required"`
		DueDate       string `json:"dueDate"`
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

	quote, err := h.Quotes.GetByID(c.Request.Context(), req.QuoteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if quote == nil || quote.TenantID != tenantID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quote does not exist in this tenant"})
		return
	}
	existing, err := h.Repo.GetByNumber(c.Request.Context(), tenantID, req.InvoiceNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "invoice number already used in this tenant"})
		return
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		day, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate must be YYYY-MM-DD"})
			return
		}
		dueDate = &day
	}
	status := domain.Status(req.Status)
	if req.Status == "" {
		status = domain.StatusPending
	}
	if !domain.StatusValid(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	now := time.Now().UTC()
	invoice := &domain.Invoice{
		TenantID:      tenantID,
		QuoteID:       req.QuoteID,
		InvoiceNumber: req.InvoiceNumber,
		DueDate:       dueDate,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Repo.Create(c.Request.Context(), invoice); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, invoiceBody(invoice))
}

// List returns the tenant's invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
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
	invoices, err := h.Repo.ListByTenant(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	out := make([]gin.H, 0, len(invoices))
	for _, i := range invoices {
		out = append(out, invoiceBody(i))
	}
	c.JSON(http.StatusOK, gin.H{"invoices": out})
}

// Get returns a single invoice.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, invoiceBody(invoice))
}

// Update changes the due date and status.
func (h *InvoiceHandler) Update(c *gin.Context) {
	invoice, ok := h.fetch(c)
	if !ok {
		return
	}
	var req struct {
		DueDate *string `json:"dueDate"`
		Status  *string `json:"status"`
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
		invoice.Status = status
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			invoice.DueDate = nil
		} else {
			day, err := time.Parse("2006-01-02", *req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate must be YYYY-MM-DD"})
				return
			}
			invoice.DueDate = &day
		}
	}
	invoice.UpdatedAt = time.Now().UTC()
	if err := h.Repo.Update(c.Request.Context(), invoice); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, invoiceBody(invoice))
}

func (h *InvoiceHandler) fetch(c *gin.Context) (*domain.Invoice, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return nil, false
	}
	invoice, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	if invoice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return nil, false
	}
	if _, ok := h.authorize(c, invoice.TenantID); !ok {
		return nil, false
	}
	return invoice, true
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

func invoiceBody(i *domain.Invoice) gin.H {
	return gin.H{
		"id":            i.ID,
		"tenantId":      i.TenantID,
		"quoteId":       i.QuoteID,
		"invoiceNumber": i.InvoiceNumber,
		"dueDate":       i.DueDate,
		"status":        i.Status,
		"createdAt":     i.CreatedAt,
		"updatedAt":     i.UpdatedAt,
	}
}
