package access

import (
	"context"
	"errors"
	"testing"

	accountdomain "session-gate/internal/account/domain"
)

func TestRequireRole(t *testing.T) {
	ctx := context.Background()
	guard, err := NewGuard(ctx)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	admin := &accountdomain.Account{ID: "a1", Role: accountdomain.RoleAdmin}
	user := &accountdomain.Account{ID: "u1", Role: accountdomain.RoleUser}

	cases := []struct {
		name     string
		acct     *accountdomain.Account
		required accountdomain.Role
		wantErr  error
	}{
		{"admin on admin surface", admin, accountdomain.RoleAdmin, nil},
		{"user on user surface", user, accountdomain.RoleUser, nil},
		{"user on admin surface", user, accountdomain.RoleAdmin, ErrForbidden},
		{"admin on user surface", admin, accountdomain.RoleUser, ErrForbidden},
		{"nil account", nil, accountdomain.RoleAdmin, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := guard.RequireRole(ctx, tc.acct, tc.required)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("RequireRole = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
