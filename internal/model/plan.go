package model

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlan is a purchasable tier. Tenants refer to it by Code.
type SubscriptionPlan struct {
	ID           uint                        `json:"id" gorm:"primaryKey"`
	Name         string                      `json:"name" gorm:"type:varchar(128);uniqueIndex;not null"`
	Code         string                      `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"`
	PriceMonthly float64                     `json:"price_monthly" gorm:"not null"`
	PriceYearly  *float64                    `json:"price_yearly"`
	MaxUsers     int                         `json:"max_users" gorm:"not null"`
	MaxStorage   int                         `json:"max_storage" gorm:"not null"` // MB
	Features     datatypes.JSONSlice[string] `json:"features"`
	IsActive     bool                        `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&Role{},
		&Permission{},
		&User{},
		&SubscriptionPlan{},
	}
}
