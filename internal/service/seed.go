package service

import (
	"admin-service/internal/model"
	"admin-service/internal/store"
	"admin-service/pkg/apperror"
	"context"
	"strings"

	"go.uber.org/zap"
)

// Role names created by the seeder
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
)

// DefaultPermissions is the permission catalogue every installation has
var DefaultPermissions = []model.Permission{
	{Code: "tenant:read", Name: "Read tenants", Category: "tenant"},
	{Code: "tenant:write", Name: "Manage tenants", Category: "tenant"},
	{Code: "user:read", Name: "Read users", Category: "user"},
	{Code: "user:write", Name: "Manage users", Category: "user"},
	{Code: "role:read", Name: "Read roles", Category: "role"},
	{Code: "plan:read", Name: "Read plans", Category: "plan"},
}

func price(v float64) *float64 { return &v }

// DefaultPlans are the subscription tiers offered out of the box
var DefaultPlans = []model.SubscriptionPlan{
	{
		Name: "Basic", Code: "basic",
		PriceMonthly: 0, MaxUsers: 10, MaxStorage: 1024,
		Features: []string{"tenant_management", "email_support"},
		IsActive: true,
	},
	{
		Name: "Pro", Code: "pro",
		PriceMonthly: 49, PriceYearly: price(490), MaxUsers: 50, MaxStorage: 10240,
		Features: []string{"tenant_management", "priority_support", "api_access"},
		IsActive: true,
	},
	{
		Name: "Enterprise", Code: "enterprise",
		PriceMonthly: 199, PriceYearly: price(1990), MaxUsers: 1000, MaxStorage: 102400,
		Features: []string{"tenant_management", "dedicated_support", "api_access", "sso", "audit_log"},
		IsActive: true,
	},
}

// AdminAccount describes the superuser to create. An empty Username skips it.
type AdminAccount struct {
	Username string
	Email    string
	Password string
	FullName string
}

// SeedReport counts the records the seeder created
type SeedReport struct {
	Permissions int
	Roles       int
	Plans       int
	AdminUser   bool
}

// Seeder bootstraps reference data. Existing records are never modified.
type Seeder struct {
	store store.Store
	log   *zap.Logger
}

func NewSeeder(s store.Store, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{store: s, log: log}
}

// Seed ensures the default permissions, roles, plans and superuser exist
func (s *Seeder) Seed(ctx context.Context, admin AdminAccount) (*SeedReport, error) {
	report := &SeedReport{}

	perms := make(map[string]model.Permission, len(DefaultPermissions))
	for _, def := range DefaultPermissions {
		p, created, err := s.ensurePermission(ctx, def)
		if err != nil {
			return report, err
		}
		if created {
			report.Permissions++
		}
		perms[p.Code] = *p
	}

	all := make([]model.Permission, 0, len(perms))
	tenantAdmin := []model.Permission{}
	for _, def := range DefaultPermissions {
		p := perms[def.Code]
		all = append(all, p)
		if strings.HasSuffix(p.Code, ":read") || p.Code == "user:write" {
			tenantAdmin = append(tenantAdmin, p)
		}
	}

	roles := []model.Role{
		{Name: RoleSuperAdmin, Description: "Full platform access", IsSystem: true, Permissions: all},
		{Name: RoleTenantAdmin, Description: "Manages users of a tenant", IsSystem: true, Permissions: tenantAdmin},
	}
	var superAdmin *model.Role
	for i := range roles {
		r, created, err := s.ensureRole(ctx, roles[i])
		if err != nil {
			return report, err
		}
		if created {
			report.Roles++
		}
		if r.Name == RoleSuperAdmin {
			superAdmin = r
		}
	}

	for _, def := range DefaultPlans {
		created, err := s.ensurePlan(ctx, def)
		if err != nil {
			return report, err
		}
		if created {
			report.Plans++
		}
	}

	if admin.Username != "" {
		created, err := s.ensureAdmin(ctx, admin, superAdmin)
		if err != nil {
			return report, err
		}
		report.AdminUser = created
	}

	s.log.Info("Seed completed",
		zap.Int("permissions_created", report.Permissions),
		zap.Int("roles_created", report.Roles),
		zap.Int("plans_created", report.Plans),
		zap.Bool("admin_created", report.AdminUser),
	)
	return report, nil
}

func isNotFound(err error) bool {
	return apperror.ErrorCode(err) == apperror.ENotFound
}

func (s *Seeder) ensurePermission(ctx context.Context, def model.Permission) (*model.Permission, bool, error) {
	existing, err := s.store.FindPermissionByCode(ctx, def.Code)
	if err == nil {
		return existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	p := def
	if err := s.store.CreatePermission(ctx, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *Seeder) ensureRole(ctx context.Context, def model.Role) (*model.Role, bool, error) {
	existing, err := s.store.FindRoleByName(ctx, def.Name)
	if err == nil {
		return existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	r := def
	if err := s.store.CreateRole(ctx, &r); err != nil {
		return nil, false, err
	}
	return &r, true, nil
}

func (s *Seeder) ensurePlan(ctx context.Context, def model.SubscriptionPlan) (bool, error) {
	_, err := s.store.FindPlanByCode(ctx, def.Code)
	if err == nil {
		return false, nil
	}
	if !isNotFound(err) {
		return false, err
	}
	p := def
	p.Features = append([]string(nil), def.Features...)
	return true, s.store.CreatePlan(ctx, &p)
}

func (s *Seeder) ensureAdmin(ctx context.Context, admin AdminAccount, role *model.Role) (bool, error) {
	const op = "service.SeedAdmin"

	_, err := s.store.FindUserByUsername(ctx, admin.Username)
	if err == nil {
		return false, nil
	}
	if !isNotFound(err) {
		return false, err
	}

	if !emailPattern.MatchString(admin.Email) {
		return false, apperror.Invalid(op, "invalid admin email %q", admin.Email)
	}

	user := &model.User{
		Username:    admin.Username,
		Email:       admin.Email,
		FullName:    admin.FullName,
		IsActive:    true,
		IsSuperuser: true,
	}
	if role != nil {
		user.RoleID = &role.ID
	}
	if err := user.SetPassword(admin.Password); err != nil {
		return false, apperror.Invalid(op, "admin password: %v", err)
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}
