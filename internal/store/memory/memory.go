// Package memory is an in-process store.Store used by tests and local
// tooling. It enforces the same unique keys and tenant deletion guard as
// the SQL schema.
package memory

import (
	"admin-service/internal/model"
	"admin-service/internal/store"
	"admin-service/pkg/apperror"
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store keeps every entity in maps guarded by a single mutex
type Store struct {
	mu sync.RWMutex

	nextID      uint
	tenants     map[uint]model.Tenant
	users       map[uint]model.User
	roles       map[uint]model.Role
	permissions map[uint]model.Permission
	plans       map[uint]model.SubscriptionPlan

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		tenants:     map[uint]model.Tenant{},
		users:       map[uint]model.User{},
		roles:       map[uint]model.Role{},
		permissions: map[uint]model.Permission{},
		plans:       map[uint]model.SubscriptionPlan{},
		now:         func() time.Time { return time.Now().UTC().Truncate(model.TimestampPrecision) },
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func sortedIDs[T any](m map[uint]T) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func paginate[T any](items []T, page store.Page) []T {
	start := page.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + page.PerSize
	if end > len(items) || end < start {
		end = len(items)
	}
	return items[start:end]
}

// Tenants

func (s *Store) ListTenants(_ context.Context, filter store.TenantFilter) ([]model.Tenant, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := []model.Tenant{}
	for _, id := range sortedIDs(s.tenants) {
		t := s.tenants[id]
		if search == "" || strings.Contains(strings.ToLower(t.Name), search) {
			matched = append(matched, t)
		}
	}
	return paginate(matched, filter.Page), int64(len(matched)), nil
}

func (s *Store) FindTenantByID(_ context.Context, id uint) (*model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, apperror.NotFound("memory.FindTenantByID", "tenant not found")
	}
	return &t, nil
}

func (s *Store) TenantNameExists(_ context.Context, name string, excludeID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenantTaken(func(t model.Tenant) bool { return t.Name == name }, excludeID), nil
}

func (s *Store) TenantSubdomainExists(_ context.Context, subdomain string, excludeID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenantTaken(func(t model.Tenant) bool { return t.Subdomain == subdomain }, excludeID), nil
}

func (s *Store) tenantTaken(match func(model.Tenant) bool, excludeID uint) bool {
	for id, t := range s.tenants {
		if id != excludeID && match(t) {
			return true
		}
	}
	return false
}

func (s *Store) tenantConflict(t *model.Tenant) bool {
	return s.tenantTaken(func(o model.Tenant) bool {
		return o.Name == t.Name || o.Subdomain == t.Subdomain
	}, t.ID)
}

func (s *Store) CreateTenant(_ context.Context, t *model.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tenantConflict(t) {
		return apperror.Conflict("memory.CreateTenant", "tenant name or subdomain already exists")
	}
	now := s.now()
	t.ID = s.id()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tenants[t.ID] = *t
	return nil
}

func (s *Store) UpdateTenant(_ context.Context, t *model.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tenants[t.ID]
	if !ok {
		return apperror.NotFound("memory.UpdateTenant", "tenant not found")
	}
	if s.tenantConflict(t) {
		return apperror.Conflict("memory.UpdateTenant", "tenant name or subdomain already exists")
	}
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = s.now()
	s.tenants[t.ID] = *t
	return nil
}

func (s *Store) DeleteTenant(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return apperror.NotFound("memory.DeleteTenant", "tenant not found")
	}
	for _, u := range s.users {
		if u.TenantID != nil && *u.TenantID == id {
			return apperror.Conflict("memory.DeleteTenant", "tenant still has users and cannot be deleted")
		}
	}
	delete(s.tenants, id)
	return nil
}

func (s *Store) CountTenantUsers(_ context.Context, id uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, u := range s.users {
		if u.TenantID != nil && *u.TenantID == id {
			n++
		}
	}
	return n, nil
}

// Users

func (s *Store) ListUsers(_ context.Context, page store.Page) ([]model.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, id := range sortedIDs(s.users) {
		users = append(users, s.users[id])
	}
	return paginate(users, page), int64(len(users)), nil
}

func (s *Store) FindUserByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("memory.FindUserByID", "user not found")
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("memory.FindUserByUsername", "user not found")
}

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.users {
		if o.Username == u.Username || o.Email == u.Email {
			return apperror.Conflict("memory.CreateUser", "username or email already exists")
		}
	}
	if u.TenantID != nil {
		if _, ok := s.tenants[*u.TenantID]; !ok {
			return apperror.Conflict("memory.CreateUser", "tenant does not exist")
		}
	}
	now := s.now()
	u.ID = s.id()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UpdateLastLogin(_ context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperror.NotFound("memory.UpdateLastLogin", "user not found")
	}
	u.LastLogin = &at
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// Roles and permissions

func (s *Store) ListRoles(_ context.Context) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]model.Role, 0, len(s.roles))
	for _, id := range sortedIDs(s.roles) {
		roles = append(roles, s.roles[id])
	}
	return roles, nil
}

func (s *Store) FindRoleByName(_ context.Context, name string) (*model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.roles {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, apperror.NotFound("memory.FindRoleByName", "role not found")
}

func (s *Store) CreateRole(_ context.Context, r *model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.roles {
		if o.Name == r.Name {
			return apperror.Conflict("memory.CreateRole", "role name already exists")
		}
	}
	now := s.now()
	r.ID = s.id()
	r.CreatedAt, r.UpdatedAt = now, now
	r.Permissions = append([]model.Permission(nil), r.Permissions...)
	s.roles[r.ID] = *r
	return nil
}

func (s *Store) ListPermissions(_ context.Context) ([]model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	permissions := make([]model.Permission, 0, len(s.permissions))
	for _, id := range sortedIDs(s.permissions) {
		permissions = append(permissions, s.permissions[id])
	}
	return permissions, nil
}

func (s *Store) FindPermissionByCode(_ context.Context, code string) (*model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.permissions {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("memory.FindPermissionByCode", "permission not found")
}

func (s *Store) CreatePermission(_ context.Context, p *model.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.permissions {
		if o.Code == p.Code {
			return apperror.Conflict("memory.CreatePermission", "permission code already exists")
		}
	}
	p.ID = s.id()
	p.CreatedAt = s.now()
	s.permissions[p.ID] = *p
	return nil
}

// Plans

func (s *Store) ListActivePlans(_ context.Context) ([]model.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := []model.SubscriptionPlan{}
	for _, id := range sortedIDs(s.plans) {
		if p := s.plans[id]; p.IsActive {
			plans = append(plans, p)
		}
	}
	return plans, nil
}

func (s *Store) FindPlanByCode(_ context.Context, code string) (*model.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plans {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("memory.FindPlanByCode", "plan not found")
}

func (s *Store) CreatePlan(_ context.Context, p *model.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.plans {
		if o.Code == p.Code || o.Name == p.Name {
			return apperror.Conflict("memory.CreatePlan", "plan name or code already exists")
		}
	}
	now := s.now()
	p.ID = s.id()
	p.CreatedAt, p.UpdatedAt = now, now
	s.plans[p.ID] = *p
	return nil
}
