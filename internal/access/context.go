package access

import (
	"context"

	accountdomain "session-gate/internal/account/domain"
)

type contextKey struct{ name string }

var accountKey = contextKey{"account"}

// WithAccount returns a context carrying the authenticated account. The
// attach step is separate from Resolve so the resolver stays a pure function
// of the token.
func WithAccount(ctx context.Context, a *accountdomain.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// AccountFrom returns the authenticated account from context and true if set.
func AccountFrom(ctx context.Context) (*accountdomain.Account, bool) {
	a, ok := ctx.Value(accountKey).(*accountdomain.Account)
	return a, ok
}
