package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

const tenantAccessQuery = "data.biziquick.tenant_access.allow"

// Default Rego policy that matches the hardcoded cross-tenant rule.
const defaultRegoPolicy = `package biziquick.tenant_access

default allow = false

allow if {
	input.actor.tenant_id == ""
}

allow if {
	input.actor.tenant_id == input.target.tenant_id
}

allow if {
	input.actor.role == "SUPER_ADMIN"
}
`

// OPAEvaluator evaluates tenant-access policy using OPA Rego.
type OPAEvaluator struct{}

// NewOPAEvaluator returns an OPA-based tenant-access evaluator.
func NewOPAEvaluator() *OPAEvaluator {
	return &OPAEvaluator{}
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and
// evaluate the default policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	compiler, err := ast.CompileModules(map[string]string{"policy.rego": defaultRegoPolicy})
	if err != nil {
		return fmt.Errorf("compile default policy: %w", err)
	}
	q := rego.New(
		rego.Query(tenantAccessQuery),
		rego.Compiler(compiler),
		rego.Input(buildInput(tenantaccess.Actor{}, "")),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// EvaluateTenantAccess evaluates the cross-tenant rule through Rego. On
// evaluation failure it falls back to the hardcoded rule rather than failing
// the request.
func (e *OPAEvaluator) EvaluateTenantAccess(ctx context.Context, actor tenantaccess.Actor, targetTenantID string) (bool, error) {
	compiler, err := ast.CompileModules(map[string]string{"policy.rego": defaultRegoPolicy})
	if err != nil {
		log.Printf("policy: compile failed: %v, using fallback rule", err)
		return tenantaccess.Allowed(actor, targetTenantID), nil
	}
	q := rego.New(
		rego.Query(tenantAccessQuery),
		rego.Compiler(compiler),
		rego.Input(buildInput(actor, targetTenantID)),
	)
	rs, err := q.Eval(ctx)
	if err != nil || len(rs) == 0 || len(rs[0].Expressions) == 0 {
		log.Printf("policy: evaluation failed: %v, using fallback rule", err)
		return tenantaccess.Allowed(actor, targetTenantID), nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		log.Printf("policy: unexpected result type %T, using fallback rule", rs[0].Expressions[0].Value)
		return tenantaccess.Allowed(actor, targetTenantID), nil
	}
	return allowed, nil
}

func buildInput(actor tenantaccess.Actor, targetTenantID string) map[string]interface{} {
	return map[string]interface{}{
		"actor": map[string]interface{}{
			"id":        actor.ID,
			"role":      actor.Role,
			"tenant_id": actor.TenantID,
		},
		"target": map[string]interface{}{
			"tenant_id": targetTenantID,
		},
	}
}
