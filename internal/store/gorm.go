package store

import (
	"admin-service/internal/model"
	"admin-service/pkg/apperror"
	"admin-service/prometheus"
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// GormStore implements Store on top of gorm. The database must have been
// opened with TranslateError so unique and foreign key violations surface
// as gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store over db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps gorm errors onto application error codes
func translate(op string, err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(op, notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return &apperror.Error{Code: apperror.EConflict, Op: op, Msg: conflict, Err: err}
	default:
		return apperror.Internal(op, err)
	}
}

func (s *GormStore) exists(ctx context.Context, m interface{}, column, value string, excludeID uint) (bool, error) {
	defer prometheus.TrackDBOperation("query")()

	var count int64
	q := s.db.WithContext(ctx).Model(m).Where(column+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Tenants

func (s *GormStore) ListTenants(ctx context.Context, filter TenantFilter) ([]model.Tenant, int64, error) {
	const op = "store.ListTenants"
	defer prometheus.TrackDBOperation("query")()

	q := s.db.WithContext(ctx).Model(&model.Tenant{})
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	// Shared by the count and the page query
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal(op, err)
	}

	tenants := []model.Tenant{}
	if err := q.Order("id").Limit(filter.Page.PerSize).Offset(filter.Page.Offset()).Find(&tenants).Error; err != nil {
		return nil, 0, apperror.Internal(op, err)
	}
	return tenants, total, nil
}

func (s *GormStore) FindTenantByID(ctx context.Context, id uint) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")()

	var tenant model.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, translate("store.FindTenantByID", err, "tenant not found", "")
	}
	return &tenant, nil
}

func (s *GormStore) TenantNameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	ok, err := s.exists(ctx, &model.Tenant{}, "name", name, excludeID)
	if err != nil {
		return false, apperror.Internal("store.TenantNameExists", err)
	}
	return ok, nil
}

func (s *GormStore) TenantSubdomainExists(ctx context.Context, subdomain string, excludeID uint) (bool, error) {
	ok, err := s.exists(ctx, &model.Tenant{}, "subdomain", subdomain, excludeID)
	if err != nil {
		return false, apperror.Internal("store.TenantSubdomainExists", err)
	}
	return ok, nil
}

func (s *GormStore) CreateTenant(ctx context.Context, tenant *model.Tenant) error {
	defer prometheus.TrackDBOperation("insert")()

	err := s.db.WithContext(ctx).Create(tenant).Error
	return translate("store.CreateTenant", err, "", "tenant name or subdomain already exists")
}

func (s *GormStore) UpdateTenant(ctx context.Context, tenant *model.Tenant) error {
	defer prometheus.TrackDBOperation("update")()

	err := s.db.WithContext(ctx).Model(tenant).
		Select("name", "subdomain", "contact_email", "contact_phone", "max_users",
			"is_active", "subscription_plan", "subscription_expires", "updated_at").
		Updates(tenant).Error
	return translate("store.UpdateTenant", err, "tenant not found", "tenant name or subdomain already exists")
}

func (s *GormStore) DeleteTenant(ctx context.Context, id uint) error {
	const op = "store.DeleteTenant"
	defer prometheus.TrackDBOperation("delete")()

	res := s.db.WithContext(ctx).Delete(&model.Tenant{}, id)
	if res.Error != nil {
		return translate(op, res.Error, "tenant not found", "tenant still has users and cannot be deleted")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(op, "tenant not found")
	}
	return nil
}

func (s *GormStore) CountTenantUsers(ctx context.Context, id uint) (int64, error) {
	defer prometheus.TrackDBOperation("query")()

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id = ?", id).Count(&count).Error; err != nil {
		return 0, apperror.Internal("store.CountTenantUsers", err)
	}
	return count, nil
}

// Users

func (s *GormStore) ListUsers(ctx context.Context, page Page) ([]model.User, int64, error) {
	const op = "store.ListUsers"
	defer prometheus.TrackDBOperation("query")()

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal(op, err)
	}

	users := []model.User{}
	if err := s.db.WithContext(ctx).Order("id").Limit(page.PerSize).Offset(page.Offset()).Find(&users).Error; err != nil {
		return nil, 0, apperror.Internal(op, err)
	}
	return users, total, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")()

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate("store.FindUserByID", err, "user not found", "")
	}
	return &user, nil
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")()

	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate("store.FindUserByUsername", err, "user not found", "")
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("insert")()

	err := s.db.WithContext(ctx).Create(user).Error
	return translate("store.CreateUser", err, "", "username or email already exists")
}

func (s *GormStore) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	const op = "store.UpdateLastLogin"
	defer prometheus.TrackDBOperation("update")()

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return apperror.Internal(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(op, "user not found")
	}
	return nil
}

// Roles and permissions

func (s *GormStore) ListRoles(ctx context.Context) ([]model.Role, error) {
	defer prometheus.TrackDBOperation("query")()

	roles := []model.Role{}
	err := s.db.WithContext(ctx).
		Preload("Permissions", func(db *gorm.DB) *gorm.DB { return db.Order("permissions.id") }).
		Order("id").
		Find(&roles).Error
	if err != nil {
		return nil, apperror.Internal("store.ListRoles", err)
	}
	return roles, nil
}

func (s *GormStore) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	defer prometheus.TrackDBOperation("query")()

	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate("store.FindRoleByName", err, "role not found", "")
	}
	return &role, nil
}

func (s *GormStore) CreateRole(ctx context.Context, role *model.Role) error {
	defer prometheus.TrackDBOperation("insert")()

	err := s.db.WithContext(ctx).Create(role).Error
	return translate("store.CreateRole", err, "", "role name already exists")
}

func (s *GormStore) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	defer prometheus.TrackDBOperation("query")()

	permissions := []model.Permission{}
	if err := s.db.WithContext(ctx).Order("id").Find(&permissions).Error; err != nil {
		return nil, apperror.Internal("store.ListPermissions", err)
	}
	return permissions, nil
}

func (s *GormStore) FindPermissionByCode(ctx context.Context, code string) (*model.Permission, error) {
	defer prometheus.TrackDBOperation("query")()

	var permission model.Permission
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&permission).Error; err != nil {
		return nil, translate("store.FindPermissionByCode", err, "permission not found", "")
	}
	return &permission, nil
}

func (s *GormStore) CreatePermission(ctx context.Context, permission *model.Permission) error {
	defer prometheus.TrackDBOperation("insert")()

	err := s.db.WithContext(ctx).Create(permission).Error
	return translate("store.CreatePermission", err, "", "permission code already exists")
}

// Plans

func (s *GormStore) ListActivePlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	defer prometheus.TrackDBOperation("query")()

	plans := []model.SubscriptionPlan{}
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&plans).Error; err != nil {
		return nil, apperror.Internal("store.ListActivePlans", err)
	}
	return plans, nil
}

func (s *GormStore) FindPlanByCode(ctx context.Context, code string) (*model.SubscriptionPlan, error) {
	defer prometheus.TrackDBOperation("query")()

	var plan model.SubscriptionPlan
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&plan).Error; err != nil {
		return nil, translate("store.FindPlanByCode", err, "plan not found", "")
	}
	return &plan, nil
}

func (s *GormStore) CreatePlan(ctx context.Context, plan *model.SubscriptionPlan) error {
	defer prometheus.TrackDBOperation("insert")()

	err := s.db.WithContext(ctx).Create(plan).Error
	return translate("store.CreatePlan", err, "", "plan name or code already exists")
}
