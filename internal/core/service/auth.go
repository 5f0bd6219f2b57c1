package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/yndnr/vftledger-go/internal/core/domain"
)

// Role names a privilege checked by admin operations.
type Role string

// Roles.
const (
	// RoleAdmin manages shards, allowance expiry and admin approvals.
	RoleAdmin Role = "admin"
	// RoleMinter creates value.
	RoleMinter Role = "minter"
	// RoleBurner destroys value.
	RoleBurner Role = "burner"
	// RolePauser engages and releases the pause switch.
	RolePauser Role = "pauser"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleMinter, RoleBurner, RolePauser}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("service: unknown role %q", s)
}

// Authorizer decides whether caller holds role. It returns nil when the
// call may proceed.
type Authorizer interface {
	Authorize(ctx context.Context, caller domain.AccountID, role Role) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, caller domain.AccountID, role Role) error

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(ctx context.Context, caller domain.AccountID, role Role) error {
	return f(ctx, caller, role)
}

// AllowAll grants every role to every caller. It is the default for the
// local CLI, where the operator is trusted.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, domain.AccountID, Role) error {
	return nil
})

// RoleTable is an in-memory Authorizer. Holders of RoleAdmin are granted
// every role.
//
// RoleTable is safe for concurrent use.
type RoleTable struct {
	mu      sync.RWMutex
	holders map[Role]map[domain.AccountID]struct{}
}

// NewRoleTable creates an empty table.
func NewRoleTable() *RoleTable {
	return &RoleTable{holders: make(map[Role]map[domain.AccountID]struct{})}
}

// Grant gives role to account. It reports whether the account did not
// already hold it.
func (t *RoleTable) Grant(role Role, account domain.AccountID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.holders[role]
	if !ok {
		set = make(map[domain.AccountID]struct{})
		t.holders[role] = set
	}
	if _, held := set[account]; held {
		return false
	}
	set[account] = struct{}{}
	return true
}

// Revoke takes role away from account. It reports whether the account
// held it.
func (t *RoleTable) Revoke(role Role, account domain.AccountID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.holders[role]
	if _, held := set[account]; !held {
		return false
	}
	delete(set, account)
	return true
}

// HasRole reports whether account holds role, directly or through RoleAdmin.
func (t *RoleTable) HasRole(role Role, account domain.AccountID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.holders[RoleAdmin][account]; ok {
		return true
	}
	_, ok := t.holders[role][account]
	return ok
}

// Authorize implements Authorizer.
func (t *RoleTable) Authorize(_ context.Context, caller domain.AccountID, role Role) error {
	if !t.HasRole(role, caller) {
		return domain.ErrPermissionDenied.WithDetails(fmt.Sprintf("%s requires role %s", caller, role))
	}
	return nil
}
