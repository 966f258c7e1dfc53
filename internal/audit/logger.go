package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rahul-biziquick/BiziQuick/internal/audit/domain"
	auditrepo "github.com/rahul-biziquick/BiziQuick/internal/audit/repository"
)

// SentinelTenantID is the tenant_id used for audit events that have no tenant
// (e.g. login_failure before the user is known, platform-level signups).
const SentinelTenantID = "_system"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used
// by the auth and lead code paths. LogEvent is best-effort: failures are
// logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP
// extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor
// for client IP. ipExtractor may be nil; then IPFromContext is used.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	if ipExtractor == nil {
		ipExtractor = IPFromContext
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not
// returned.
func (l *Logger) LogEvent(ctx context.Context, tenantID, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := l.ipExtractor(ctx)
	if tenantID == "" {
		tenantID = SentinelTenantID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}

type ipContextKey struct{}

// ContextWithIP stores the client IP on the context for later extraction.
func ContextWithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipContextKey{}, ip)
}

// IPFromContext returns the client IP stored by ContextWithIP, or "unknown".
func IPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipContextKey{}).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}
