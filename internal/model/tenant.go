package model

import (
	"time"

	"gorm.io/gorm"
)

// TimestampPrecision is the finest resolution every supported dialect
// stores. mysql datetime(3) keeps milliseconds.
const TimestampPrecision = time.Millisecond

// Default values applied to new tenants
const (
	DefaultMaxUsers         = 10
	DefaultSubscriptionPlan = "basic"
)

// Tenant represents an organization using the platform.
// Users reference it through users.tenant_id, which blocks deletion
// while any user is attached.
type Tenant struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	Name                string     `json:"name" gorm:"type:varchar(128);uniqueIndex;not null"`
	Subdomain           string     `json:"subdomain" gorm:"type:varchar(64);uniqueIndex;not null"`
	ContactEmail        string     `json:"contact_email" gorm:"type:varchar(128);not null"`
	ContactPhone        *string    `json:"contact_phone" gorm:"type:varchar(32)"`
	MaxUsers            int        `json:"max_users" gorm:"not null"`
	IsActive            bool       `json:"is_active" gorm:"not null"`
	SubscriptionPlan    string     `json:"subscription_plan" gorm:"type:varchar(64);not null"`
	SubscriptionExpires *time.Time `json:"subscription_expires"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewTenant returns a tenant with the platform defaults applied
func NewTenant(name, subdomain, contactEmail string) *Tenant {
	return &Tenant{
		Name:             name,
		Subdomain:        subdomain,
		ContactEmail:     contactEmail,
		MaxUsers:         DefaultMaxUsers,
		IsActive:         true,
		SubscriptionPlan: DefaultSubscriptionPlan,
	}
}

// AfterFind reports timestamps in UTC whatever zone the driver decoded them in
func (t *Tenant) AfterFind(*gorm.DB) error {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.SubscriptionExpires != nil {
		expires := t.SubscriptionExpires.UTC()
		t.SubscriptionExpires = &expires
	}
	return nil
}
