package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	accountdomain "session-gate/internal/account/domain"
)

// ErrForbidden is returned when the authenticated account's role does not
// satisfy the required role. On the admin surface the boundary must clear the
// token and redirect to the public entry point, not just render an error.
var ErrForbidden = errors.New("role not permitted")

const policyQuery = "data.sessiongate.authz.allow"

// Role-gating policy. Kept in Rego so the gate can grow (per-operation rules,
// deny lists) without touching the resolver.
const defaultRegoPolicy = `package sessiongate.authz

default allow = false

allow if {
	input.account.role == input.required_role
}
`

// Guard evaluates the role policy for authenticated accounts.
type Guard struct {
	query rego.PreparedEvalQuery
}

// NewGuard compiles the role policy and prepares its query. Fails only on a
// broken policy, so call it once at startup.
func NewGuard(ctx context.Context) (*Guard, error) {
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": defaultRegoPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile role policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare role policy: %w", err)
	}
	return &Guard{query: q}, nil
}

// RequireRole returns nil when acct holds the required role, ErrForbidden
// when it does not (or acct is nil), and an error for evaluation failures.
func (g *Guard) RequireRole(ctx context.Context, acct *accountdomain.Account, required accountdomain.Role) error {
	if acct == nil {
		return ErrForbidden
	}
	input := map[string]interface{}{
		"account": map[string]interface{}{
			"id":   acct.ID,
			"role": string(acct.Role),
		},
		"required_role": string(required),
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("eval role policy: %w", err)
	}
	if !rs.Allowed() {
		return ErrForbidden
	}
	return nil
}
