package service

import (
	"admin-service/internal/model"
	"admin-service/internal/store"
	"admin-service/pkg/apperror"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Accepted subscription_expires layouts, most specific first
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TenantInput carries the client supplied tenant fields. A nil field was
// not supplied. When decoded from JSON an explicit null on a string field
// becomes "", which clears contact_phone and subscription_expires and is
// rejected for the required fields.
type TenantInput struct {
	Name                *string `json:"name"`
	Subdomain           *string `json:"subdomain"`
	ContactEmail        *string `json:"contact_email"`
	ContactPhone        *string `json:"contact_phone"`
	MaxUsers            *int    `json:"max_users"`
	IsActive            *bool   `json:"is_active"`
	SubscriptionPlan    *string `json:"subscription_plan"`
	SubscriptionExpires *string `json:"subscription_expires"`
}

func (in *TenantInput) UnmarshalJSON(data []byte) error {
	type fields TenantInput
	var decoded fields
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}

	for key, field := range map[string]**string{
		"name":                 &decoded.Name,
		"subdomain":            &decoded.Subdomain,
		"contact_email":        &decoded.ContactEmail,
		"contact_phone":        &decoded.ContactPhone,
		"subscription_plan":    &decoded.SubscriptionPlan,
		"subscription_expires": &decoded.SubscriptionExpires,
	} {
		if raw, ok := present[key]; ok && isNull(raw) {
			cleared := ""
			*field = &cleared
		}
	}
	for _, key := range []string{"max_users", "is_active"} {
		if raw, ok := present[key]; ok && isNull(raw) {
			return fmt.Errorf("%s must not be null", key)
		}
	}

	*in = TenantInput(decoded)
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Empty reports whether no field was supplied
func (in TenantInput) Empty() bool {
	return in.Name == nil && in.Subdomain == nil && in.ContactEmail == nil &&
		in.ContactPhone == nil && in.MaxUsers == nil && in.IsActive == nil &&
		in.SubscriptionPlan == nil && in.SubscriptionExpires == nil
}

// TenantService implements the tenant lifecycle
type TenantService struct {
	tenants store.TenantStore
	log     *zap.Logger
}

func NewTenantService(tenants store.TenantStore, log *zap.Logger) *TenantService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TenantService{tenants: tenants, log: log}
}

// List returns one page of tenants, optionally filtered by name
func (s *TenantService) List(ctx context.Context, page, perPage int, search string) (*Paged[model.Tenant], error) {
	p := NewPage(page, perPage)
	tenants, total, err := s.tenants.ListTenants(ctx, store.TenantFilter{
		Search: strings.TrimSpace(search),
		Page:   p,
	})
	if err != nil {
		return nil, err
	}
	return newPaged(tenants, total, p), nil
}

func (s *TenantService) Get(ctx context.Context, id uint) (*model.Tenant, error) {
	return s.tenants.FindTenantByID(ctx, id)
}

// Create validates the input and stores a new tenant with defaults applied
func (s *TenantService) Create(ctx context.Context, in TenantInput) (*model.Tenant, error) {
	const op = "service.CreateTenant"

	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", in.Name},
		{"subdomain", in.Subdomain},
		{"contact_email", in.ContactEmail},
	} {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return nil, apperror.Invalid(op, "missing required field: %s", f.name)
		}
	}

	tenant := model.NewTenant("", "", "")
	if err := apply(op, tenant, in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, op, tenant, nil); err != nil {
		return nil, err
	}
	if err := s.tenants.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	s.log.Info("Tenant created", zap.Uint("tenant_id", tenant.ID), zap.String("subdomain", tenant.Subdomain))
	return tenant, nil
}

// Update applies the supplied fields. Nothing is written when any field
// fails validation or uniqueness.
func (s *TenantService) Update(ctx context.Context, id uint, in TenantInput) (*model.Tenant, error) {
	const op = "service.UpdateTenant"

	if in.Empty() {
		return nil, apperror.Invalid(op, "no fields to update")
	}

	current, err := s.tenants.FindTenantByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if err := apply(op, &updated, in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, op, &updated, current); err != nil {
		return nil, err
	}
	if err := s.tenants.UpdateTenant(ctx, &updated); err != nil {
		return nil, err
	}

	s.log.Info("Tenant updated", zap.Uint("tenant_id", id))
	return &updated, nil
}

// Delete removes a tenant that has no users attached
func (s *TenantService) Delete(ctx context.Context, id uint) error {
	const op = "service.DeleteTenant"

	if _, err := s.tenants.FindTenantByID(ctx, id); err != nil {
		return err
	}

	count, err := s.tenants.CountTenantUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.Conflict(op, "tenant still has %d user(s) and cannot be deleted", count)
	}

	if err := s.tenants.DeleteTenant(ctx, id); err != nil {
		return err
	}

	s.log.Info("Tenant deleted", zap.Uint("tenant_id", id))
	return nil
}

func (s *TenantService) Activate(ctx context.Context, id uint) (*model.Tenant, error) {
	return s.setActive(ctx, id, true)
}

func (s *TenantService) Deactivate(ctx context.Context, id uint) (*model.Tenant, error) {
	return s.setActive(ctx, id, false)
}

func (s *TenantService) setActive(ctx context.Context, id uint, active bool) (*model.Tenant, error) {
	tenant, err := s.tenants.FindTenantByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.IsActive = active
	if err := s.tenants.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	s.log.Info("Tenant status changed", zap.Uint("tenant_id", id), zap.Bool("is_active", active))
	return tenant, nil
}

// checkUnique rejects a name or subdomain held by another tenant. When
// current is set only changed values are checked.
func (s *TenantService) checkUnique(ctx context.Context, op string, t *model.Tenant, current *model.Tenant) error {
	var excludeID uint
	if current != nil {
		excludeID = current.ID
	}

	if current == nil || t.Name != current.Name {
		taken, err := s.tenants.TenantNameExists(ctx, t.Name, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict(op, "tenant name already exists")
		}
	}

	if current == nil || t.Subdomain != current.Subdomain {
		taken, err := s.tenants.TenantSubdomainExists(ctx, t.Subdomain, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict(op, "subdomain already exists")
		}
	}
	return nil
}

// apply validates each supplied field and copies it onto t
func apply(op string, t *model.Tenant, in TenantInput) error {
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return apperror.Invalid(op, "name must not be empty")
		}
		t.Name = *in.Name
	}
	if in.Subdomain != nil {
		if strings.TrimSpace(*in.Subdomain) == "" {
			return apperror.Invalid(op, "subdomain must not be empty")
		}
		t.Subdomain = *in.Subdomain
	}
	if in.ContactEmail != nil {
		if !emailPattern.MatchString(*in.ContactEmail) {
			return apperror.Invalid(op, "invalid email format")
		}
		t.ContactEmail = *in.ContactEmail
	}
	if in.ContactPhone != nil {
		if *in.ContactPhone == "" {
			t.ContactPhone = nil
		} else {
			phone := *in.ContactPhone
			t.ContactPhone = &phone
		}
	}
	if in.MaxUsers != nil {
		if *in.MaxUsers < 1 {
			return apperror.Invalid(op, "max_users must be at least 1")
		}
		t.MaxUsers = *in.MaxUsers
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if in.SubscriptionPlan != nil {
		if strings.TrimSpace(*in.SubscriptionPlan) == "" {
			return apperror.Invalid(op, "subscription_plan must not be empty")
		}
		t.SubscriptionPlan = *in.SubscriptionPlan
	}
	if in.SubscriptionExpires != nil {
		expires, err := parseExpiry(*in.SubscriptionExpires)
		if err != nil {
			return apperror.Invalid(op, "invalid subscription_expires: %q", *in.SubscriptionExpires)
		}
		t.SubscriptionExpires = expires
	}
	return nil
}

// parseExpiry accepts an empty string as "no expiry"
func parseExpiry(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			t = t.UTC().Truncate(model.TimestampPrecision)
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
