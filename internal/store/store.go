// Package store persists the admin domain model.
//
// Implementations must enforce the unique keys (tenant name/subdomain,
// user username/email, role name, permission code, plan name/code) and
// the tenant deletion guard themselves, returning apperror codes
// EConflict and ENotFound so callers never depend on a driver.
package store

import (
	"admin-service/internal/model"
	"context"
	"math"
	"time"
)

// Page selects a 1-indexed window of a listing
type Page struct {
	Number  int
	PerSize int
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// so a page number too large to address lands past the end of any listing.
func (p Page) Offset() int {
	if p.Number <= 1 || p.PerSize <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.PerSize {
		return math.MaxInt
	}
	return (p.Number - 1) * p.PerSize
}

// TenantFilter narrows a tenant listing
type TenantFilter struct {
	// Search is a case-insensitive substring of the tenant name
	Search string
	Page   Page
}

// TenantStore persists tenants
type TenantStore interface {
	ListTenants(ctx context.Context, filter TenantFilter) ([]model.Tenant, int64, error)
	FindTenantByID(ctx context.Context, id uint) (*model.Tenant, error)
	// TenantNameExists and TenantSubdomainExists ignore the tenant with id excludeID
	TenantNameExists(ctx context.Context, name string, excludeID uint) (bool, error)
	TenantSubdomainExists(ctx context.Context, subdomain string, excludeID uint) (bool, error)
	CreateTenant(ctx context.Context, tenant *model.Tenant) error
	UpdateTenant(ctx context.Context, tenant *model.Tenant) error
	DeleteTenant(ctx context.Context, id uint) error
	CountTenantUsers(ctx context.Context, id uint) (int64, error)
}

// UserStore persists users
type UserStore interface {
	ListUsers(ctx context.Context, page Page) ([]model.User, int64, error)
	FindUserByID(ctx context.Context, id uint) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

// RoleStore persists roles and the permission catalogue
type RoleStore interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	CreateRole(ctx context.Context, role *model.Role) error
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionByCode(ctx context.Context, code string) (*model.Permission, error)
	CreatePermission(ctx context.Context, permission *model.Permission) error
}

// PlanStore persists subscription plans
type PlanStore interface {
	ListActivePlans(ctx context.Context) ([]model.SubscriptionPlan, error)
	FindPlanByCode(ctx context.Context, code string) (*model.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, plan *model.SubscriptionPlan) error
}

// Store bundles every repository
type Store interface {
	TenantStore
	UserStore
	RoleStore
	PlanStore
}
