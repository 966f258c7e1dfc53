package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rahul-biziquick/BiziQuick/internal/security"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	"github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
)

type memTenantRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Tenant
}

func (r *memTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t2 := *t
	r.m[t.ID] = &t2
	return nil
}

func (r *memTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	t2 := *t
	return &t2, nil
}

func (r *memTenantRepo) List(ctx context.Context, limit, offset int32) ([]*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Tenant
	for _, t := range r.m {
		t2 := *t
		out = append(out, &t2)
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *security.TokenProvider, *memTenantRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	repo := &memTenantRepo{m: map[string]*domain.Tenant{
		"tenant-a": {ID: "tenant-a", Name: "Acme", Plan: domain.PlanPro, Status: domain.StatusActive},
		"tenant-b": {ID: "tenant-b", Name: "Globex", Plan: domain.PlanFree, Status: domain.StatusActive},
	}}
	h := NewTenantHandler(repo)
	r := gin.New()
	authed := r.Group("/", middleware.RequireAuth(tokens))
	h.RegisterRoutes(authed)
	return r, tokens, repo
}

func bearerFor(t *testing.T, tokens *security.TokenProvider, role, tenantID string) string {
	t.Helper()
	token, _, _, err := tokens.IssueAccess(security.Identity{
		UserID: "u1", Email: "u@x.com", Role: role,
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

func TestTenant_CreateRequiresPlatformAccount(t *testing.T) {
	r, tokens, _ := newTestRouter(t)

	admin := bearerFor(t, tokens, "ADMIN", "tenant-a")
	if w := doJSON(t, r, http.MethodPost, "/tenants", admin, gin.H{"name": "Initech"}); w.Code != http.StatusForbidden {
		t.Errorf("tenant admin create status = %d, want 403", w.Code)
	}

	platform := bearerFor(t, tokens, "ADMIN", "")
	if w := doJSON(t, r, http.MethodPost, "/tenants", platform, gin.H{"name": "Initech"}); w.Code != http.StatusCreated {
		t.Errorf("platform create status = %d, want 201", w.Code)
	}

	super := bearerFor(t, tokens, "SUPER_ADMIN", "tenant-a")
	if w := doJSON(t, r, http.MethodPost, "/tenants", super, gin.H{"name": "Hooli", "plan": "ENTERPRISE"}); w.Code != http.StatusCreated {
		t.Errorf("super admin create status = %d, want 201", w.Code)
	}
}

func TestTenant_CreateDefaultsAndValidation(t *testing.T) {
	r, tokens, _ := newTestRouter(t)
	platform := bearerFor(t, tokens, "ADMIN", "")

	w := doJSON(t, r, http.MethodPost, "/tenants", platform, gin.H{"name": "Initech"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res struct {
		ID     string `json:"id"`
		Plan   string `json:"plan"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Plan != domain.PlanFree {
		t.Errorf("plan = %q, want FREE default", res.Plan)
	}
	if res.Status != domain.StatusActive {
		t.Errorf("status = %q, want ACTIVE", res.Status)
	}
	if res.ID == "" {
		t.Error("id missing")
	}

	if w := doJSON(t, r, http.MethodPost, "/tenants", platform, gin.H{"plan": "FREE"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/tenants", platform, gin.H{"name": "X", "plan": "GOLD"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown plan status = %d, want 400", w.Code)
	}
}

func TestTenant_ListScopedToMember(t *testing.T) {
	r, tokens, _ := newTestRouter(t)

	member := bearerFor(t, tokens, "MANAGER", "tenant-a")
	w := doJSON(t, r, http.MethodGet, "/tenants", member, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		Tenants []struct {
			ID string `json:"id"`
		} `json:"tenants"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Tenants) != 1 || res.Tenants[0].ID != "tenant-a" {
		t.Errorf("member list = %+v, want only tenant-a", res.Tenants)
	}

	platform := bearerFor(t, tokens, "ADMIN", "")
	w = doJSON(t, r, http.MethodGet, "/tenants", platform, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	res.Tenants = nil
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Tenants) != 2 {
		t.Errorf("platform list size = %d, want 2", len(res.Tenants))
	}
}

func TestTenant_GetCrossTenant(t *testing.T) {
	r, tokens, _ := newTestRouter(t)

	member := bearerFor(t, tokens, "MANAGER", "tenant-a")
	if w := doJSON(t, r, http.MethodGet, "/tenants/tenant-b", member, nil); w.Code != http.StatusForbidden {
		t.Errorf("cross-tenant get status = %d, want 403", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/tenants/tenant-a", member, nil); w.Code != http.StatusOK {
		t.Errorf("own tenant get status = %d, want 200", w.Code)
	}

	super := bearerFor(t, tokens, "SUPER_ADMIN", "tenant-a")
	if w := doJSON(t, r, http.MethodGet, "/tenants/tenant-b", super, nil); w.Code != http.StatusOK {
		t.Errorf("super admin get status = %d, want 200", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/tenants/ghost", super, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown tenant status = %d, want 404", w.Code)
	}
}
