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

	"github.com/rahul-biziquick/BiziQuick/internal/invoice/domain"
	quotedomain "github.com/rahul-biziquick/BiziQuick/internal/quote/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/security"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

type memInvoiceRepo struct {
	mu     sync.Mutex
	nextID int64
	m      map[int64]*domain.Invoice
}

func (r *memInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	inv.ID = r.nextID
	i2 := *inv
	r.m[inv.ID] = &i2
	return nil
}

func (r *memInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	i2 := *inv
	return &i2, nil
}

func (r *memInvoiceRepo) GetByNumber(ctx context.Context, tenantID, invoiceNumber string) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.m {
		if inv.TenantID == tenantID && inv.InvoiceNumber == invoiceNumber {
			i2 := *inv
			return &i2, nil
		}
	}
	return nil, nil
}

func (r *memInvoiceRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Invoice
	for _, inv := range r.m {
		if inv.TenantID == tenantID {
			i2 := *inv
			out = append(out, &i2)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i2 := *inv
	r.m[inv.ID] = &i2
	return nil
}

type memQuoteGetter struct {
	m map[int64]*quotedomain.Quote
}

func (g *memQuoteGetter) GetByID(ctx context.Context, id int64) (*quotedomain.Quote, error) {
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
	quotes := &memQuoteGetter{m: map[int64]*quotedomain.Quote{
		1: {ID: 1, TenantID: "tenant-a", Status: quotedomain.StatusAccepted},
		2: {ID: 2, TenantID: "tenant-b", Status: quotedomain.StatusDraft},
	}}
	h := NewInvoiceHandler(&memInvoiceRepo{m: make(map[int64]*domain.Invoice)}, quotes, fallbackPolicy{})
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

func TestInvoice_CreateWithDueDate(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	w := doJSON(t, r, http.MethodPost, "/invoices", bearer, gin.H{
		"quoteId": 1, "invoiceNumber": "INV-2026-001", "dueDate": "2026-09-30",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res struct {
		Status        string `json:"status"`
		InvoiceNumber string `json:"invoiceNumber"`
		DueDate       string `json:"dueDate"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != string(domain.StatusPending) {
		t.Errorf("status = %q, want PENDING", res.Status)
	}
	if res.InvoiceNumber != "INV-2026-001" {
		t.Errorf("invoiceNumber = %q", res.InvoiceNumber)
	}
	if res.DueDate == "" {
		t.Error("dueDate missing from response")
	}
}

func TestInvoice_DuplicateNumberConflicts(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	body := gin.H{"quoteId": 1, "invoiceNumber": "INV-7"}
	if w := doJSON(t, r, http.MethodPost, "/invoices", bearer, body); w.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/invoices", bearer, body); w.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", w.Code)
	}
}

func TestInvoice_QuoteMustBeInTenant(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	if w := doJSON(t, r, http.MethodPost, "/invoices", bearer, gin.H{"quoteId": 99, "invoiceNumber": "INV-1"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown quote status = %d, want 400", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/invoices", bearer, gin.H{"quoteId": 2, "invoiceNumber": "INV-2"}); w.Code != http.StatusBadRequest {
		t.Errorf("foreign quote status = %d, want 400", w.Code)
	}
}

func TestInvoice_BadDueDate(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	w := doJSON(t, r, http.MethodPost, "/invoices", bearer, gin.H{
		"quoteId": 1, "invoiceNumber": "INV-3", "dueDate": "30/09/2026",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestInvoice_UpdateStatus(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearer := bearerFor(t, tokens, "tenant-a")

	w := doJSON(t, r, http.MethodPost, "/invoices", bearer, gin.H{"quoteId": 1, "invoiceNumber": "INV-9"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var res struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	path := "/invoices/" + strconv.FormatInt(res.ID, 10)

	w = doJSON(t, r, http.MethodPut, path, bearer, gin.H{"status": "PAID"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}
	var updated struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Status != "PAID" {
		t.Errorf("status = %q, want PAID", updated.Status)
	}

	if w := doJSON(t, r, http.MethodPut, path, bearer, gin.H{"status": "VOID"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad status code = %d, want 400", w.Code)
	}
}

func TestInvoice_CrossTenantGetForbidden(t *testing.T) {
	r, tokens := newTestRouter(t)
	bearerA := bearerFor(t, tokens, "tenant-a")
	bearerB := bearerFor(t, tokens, "tenant-b")

	w := doJSON(t, r, http.MethodPost, "/invoices", bearerA, gin.H{"quoteId": 1, "invoiceNumber": "INV-11"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var res struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)

	if w := doJSON(t, r, http.MethodGet, "/invoices/"+strconv.FormatInt(res.ID, 10), bearerB, nil); w.Code != http.StatusForbidden {
		t.Errorf("cross-tenant get status = %d, want 403", w.Code)
	}
}
