package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	oppdomain "github.com/rahul-biziquick/BiziQuick/internal/opportunity/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/quote/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/security"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

type memQuoteRepo struct {
	mu     sync.Mutex
	nextID int64
	m      map[int64]*domain.Quote
}

func (r *memQuoteRepo) Create(ctx context.Context, q *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	q.ID = r.nextID
	q2 := *q
	r.m[q.ID] = &q2
	return nil
}

func (r *memQuoteRepo) GetByID(ctx context.Context, id int64) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	q2 := *q
	return &q2, nil
}

func (r *memQuoteRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Quote
	for _, q := range r.m {
		if q.TenantID == tenantID {
			q2 := *q
			out = append(out, &q2)
		}
	}
	return out, nil
}

func (r *memQuoteRepo) Update(ctx context.Context, q *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q2 := *q
	r.m[q.ID] = &q2
	return nil
}

type memOpportunityGetter struct {
	m map[int64]*oppdomain.Opportunity
}

func (g *memOpportunityGetter) GetByID(ctx context.Context, id int64) (*oppdomain.Opportunity, error) {
	return g.m[id], nil
}

type fallbackPolicy struct{}

func (fallbackPolicy) EvaluateTenantAccess(ctx context.Context, actor tenantaccess.Actor, targetTenantID string) (bool, error) {
	return tenantaccess.Allowed(actor, targetTenantID), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *security.TokenProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	opps := &memOpportunityGetter{m: map[int64]*oppdomain.Opportunity{
		1: {ID: 1, TenantID: "tenant-a", Stage: oppdomain.StageProposal, Value: 4000},
		2: {ID: 2, TenantID: "tenant-b", Stage: oppdomain.StageProspecting},
	}}
	h := NewQuoteHandler(&memQuoteRepo{m: make(map[int64]*domain.Quote)}, opps, fallbackPolicy{})
	r := gin.New()
	authed := r.Group("/", middleware.RequireAuth(tokens))
	h.RegisterRoutes(authed)
	return r, tokens
}

func bearerFor(t *testing.T, tokens *security.TokenProvider, tenantID string) string {
	t.Helper()
	token, _, _, err := tokens.IssueAccess(security.Identity{
		UserID: "manager-1", Email: "m@x.com", Role: "MANAGER",
		TenantID: tenantID, Platform: "WEB", SessionID: "s1", SessionVersion: 1,
	})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuote_CreateDefaultsToDraft(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	w := doJSON(t, r, http.MethodPost, "/quotes", bearer, gin.H{"opportunityId": 1, "pdfUrl": "https://files.example.com/q1.pdf"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res struct {
		Status string `json:"status"`
		PDFURL string `json:"pdfUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != string(domain.StatusDraft) {
		t.Errorf("status = %q, want DRAFT", res.Status)
	}
	if res.PDFURL != "https://files.example.com/q1.pdf" {
		t.Errorf("pdfUrl = %q", res.PDFURL)
	}
}

func TestQuote_OpportunityMustBeInTenant(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	if w := doJSON(t, r, http.MethodPost, "/quotes", bearer, gin.H{"opportunityId": 99}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown opportunity status = %d, want 400", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/quotes", bearer, gin.H{"opportunityId": 2}); w.Code != http.StatusBadRequest {
		t.Errorf("foreign opportunity status = %d, want 400", w.Code)
	}
}

func TestQuote_UpdateStatus(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	w := doJSON(t, r, http.MethodPost, "/quotes", bearer, gin.H{"opportunityId": 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var res struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	path := "/quotes/" + strconv.FormatInt(res.ID, 10)

	w = doJSON(t, r, http.MethodPut, path, bearer, gin.H{"status": "SENT"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}
	var updated struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Status != "SENT" {
		t.Errorf("status = %q, want SENT", updated.Status)
	}

	if w := doJSON(t, r, http.MethodPut, path, bearer, gin.H{"status": "SHREDDED"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad status code = %d, want 400", w.Code)
	}
}

func TestQuote_CrossTenantGetForbidden(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearerA := bearerFor(t, tokens, "tenant-a")
	bearerB := bearerFor(t, tokens, "tenant-b")

	w := doJSON(t, r, http.MethodPost, "/quotes", bearerA, gin.H{"opportunityId": 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var res struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)

	if w := doJSON(t, r, http.MethodGet, "/quotes/"+strconv.FormatInt(res.ID, 10), bearerB, nil); w.Code != http.StatusForbidden {
		t.Errorf("cross-tenant get status = %d, want 403", w.Code)
	}
}
