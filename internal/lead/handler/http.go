package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahul-biziquick/BiziQuick/internal/lead/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/lead/service"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

// LeadHandler exposes lead lifecycle and scoring endpoints over HTTP.
type LeadHandler struct {
	Leads *service.LeadService
}

// NewLeadHandler creates the handler set.
func NewLeadHandler(leads *service.LeadService) *LeadHandler {
	return &LeadHandler{Leads: leads}
}

// RegisterRoutes mounts the lead endpoints. The group must already run the
// auth middleware.
func (h *LeadHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/leads", h.Create)
	r.GET("/leads", h.List)
	r.GET("/leads/lead-scores", h.ListScores)
	r.POST("/leads/lead-scores", h.AddScore)
	r.POST("/leads/bulk-action", h.BulkAction)
	r.GET("/leads/:id", h.Get)
	r.PUT("/leads/:id", h.Update)
	r.DELETE("/leads/:id", h.Archive)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownTenant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func actorFrom(c *gin.Context) (tenantaccess.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return actor, ok
}

// tenantFor resolves the target tenant: an explicit value wins, otherwise
// the actor's own tenant.
func tenantFor(actor tenantaccess.Actor, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return actor.TenantID
}

func leadID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return 0, false
	}
	return id, true
}

// Create adds a lead to the tenant.
func (h *LeadHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		TenantID   string            `json:"tenantId"`
		Name       string            `json:"name" binding:"required"`
		Email      string            `json:"email"`
		Phone      string            `json:"phone"`
		Company    string            `json:"company"`
		Source     string            `json:"source"`
		AssignedTo string            `json:"assignedTo"`
		CampaignID string            `json:"campaignId"`
		Tags       []string          `json:"tags"`
		Activities []domain.Activity `json:"activities"`
		Notes      []domain.Note     `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	lead, err := h.Leads.Create(c.Request.Context(), actor, service.CreateLeadInput{
		TenantID:   tenantFor(actor, req.TenantID),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Source:     req.Source,
		AssignedTo: req.AssignedTo,
		CampaignID: req.CampaignID,
		Tags:       req.Tags,
		Activities: req.Activities,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, leadBody(lead))
}

// List returns the tenant's leads matching the query filters.
func (h *LeadHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	in := service.ListInput{
		TenantID: tenantFor(actor, c.Query("tenantId")),
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Source:   c.Query("source"),
		OwnerID:  c.Query("ownerId"),
	}
	if raw := c.Query("score"); raw != "" {
		score, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid score filter"})
			return
		}
		in.Score = &score
	}
	if raw := c.Query("createdDate"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "createdDate must be YYYY-MM-DD"})
			return
		}
		in.CreatedDate = &day
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		in.Page = int32(page)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		in.PageSize = int32(limit)
	}

	leads, err := h.Leads.List(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(leads))
	for _, lead := range leads {
		out = append(out, leadBody(lead))
	}
	c.JSON(http.StatusOK, gin.H{"leads": out})
}

// Get returns a single live lead.
func (h *LeadHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := leadID(c)
	if !ok {
		return
	}
	lead, err := h.Leads.Get(c.Request.Context(), actor, tenantFor(actor, c.Query("tenantId")), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, leadBody(lead))
}

// Update merges scalar fields and appends list entries.
func (h *LeadHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req struct {
		TenantID    string              `json:"tenantId"`
		Name        *string             `json:"name"`
		Email       *string             `json:"email"`
		Phone       *string             `json:"phone"`
		Company     *string             `json:"company"`
		Source      *string             `json:"source"`
		Status      *string             `json:"status"`
		AssignedTo  *string             `json:"assignedTo"`
		Tags        []string            `json:"tags"`
		Activities  []domain.Activity   `json:"activities"`
		Notes       []domain.Note       `json:"notes"`
		Attachments []domain.Attachment `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	lead, err := h.Leads.Update(c.Request.Context(), actor, tenantFor(actor, req.TenantID), id, service.UpdateLeadInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		Source:      req.Source,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		Tags:        req.Tags,
		Activities:  req.Activities,
		Notes:       req.Notes,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, leadBody(lead))
}

// Archive soft-deletes a lead.
func (h *LeadHandler) Archive(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := leadID(c)
	if !ok {
		return
	}
	if err := h.Leads.Archive(c.Request.Context(), actor, tenantFor(actor, c.Query("tenantId")), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lead archived"})
}

// BulkAction applies assign, delete or tag over a list of leads.
func (h *LeadHandler) BulkAction(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		TenantID string  `json:"tenantId"`
		Action   string  `json:"action" binding:"required"`
		LeadIDs  []int64 `json:"leadIds" binding:"required"`
		Value    string  `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	err := h.Leads.BulkAction(c.Request.Context(), actor, tenantFor(actor, req.TenantID), req.Action, req.LeadIDs, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bulk action applied", "count": len(req.LeadIDs)})
}

// AddScore records a scoring event against a lead.
func (h *LeadHandler) AddScore(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		TenantID  string `json:"tenantId"`
		LeadID    int64  `json:"leadId" binding:"required"`
		Event     string `json:"event" binding:"required"`
		Points    int64  `json:"points"`
		Condition string `json:"condition"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	event, err := h.Leads.AddScore(c.Request.Context(), actor, service.ScoreInput{
		TenantID:  tenantFor(actor, req.TenantID),
		LeadID:    req.LeadID,
		Event:     req.Event,
		Points:    req.Points,
		Condition: req.Condition,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":        event.ID,
		"tenantId":  event.TenantID,
		"leadId":    event.LeadID,
		"event":     event.Event,
		"points":    event.Points,
		"condition": event.Condition,
		"createdAt": event.CreatedAt,
	})
}

// ListScores returns the tenant's scoring events.
func (h *LeadHandler) ListScores(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	events, err := h.Leads.ListScores(c.Request.Context(), actor, tenantFor(actor, c.Query("tenantId")))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, e := range events {
		out = append(out, gin.H{
			"id":        e.ID,
			"tenantId":  e.TenantID,
			"leadId":    e.LeadID,
			"event":     e.Event,
			"points":    e.Points,
			"condition": e.Condition,
			"createdAt": e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leadScores": out})
}

func leadBody(l *domain.Lead) gin.H {
	return gin.H{
		"id":          l.ID,
		"tenantId":    l.TenantID,
		"name":        l.Name,
		"email":       l.Email,
		"phone":       l.Phone,
		"company":     l.Company,
		"source":      l.Source,
		"status":      l.Status,
		"score":       l.Score,
		"ownerId":     l.OwnerID,
		"assignedTo":  l.AssignedTo,
		"tags":        l.Tags,
		"activities":  l.Activities,
		"notes":       l.Notes,
		"attachments": l.Attachments,
		"createdAt":   l.CreatedAt,
		"updatedAt":   l.UpdatedAt,
	}
}
