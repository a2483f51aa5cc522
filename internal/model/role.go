package model

import (
	"time"
)

// Role groups permissions and is assigned to users
type Role struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(64);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:varchar(256)"`
	IsSystem    bool      `json:"is_system" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Permissions []Permission `json:"permissions" gorm:"many2many:role_permissions;"`
}

// Permission is a single grantable capability, e.g. "tenant:write"
type Permission struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"type:varchar(128);not null"`
	Category    string    `json:"category" gorm:"type:varchar(64)"`
	Description string    `json:"description" gorm:"type:varchar(256)"`
	CreatedAt   time.Time `json:"created_at"`
}
