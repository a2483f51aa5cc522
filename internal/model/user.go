package model

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an account that can log in to the admin API
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"type:varchar(128);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(256);not null"`
	FullName     string     `json:"full_name" gorm:"type:varchar(128)"`
	Phone        string     `json:"phone" gorm:"type:varchar(32)"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	IsSuperuser  bool       `json:"is_superuser" gorm:"not null"`
	LastLogin    *time.Time `json:"last_login"`
	TenantID     *uint      `json:"tenant_id" gorm:"index"`
	RoleID       *uint      `json:"role_id" gorm:"index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Tenant *Tenant `json:"-" gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Role   *Role   `json:"-" gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// SetPassword stores a bcrypt hash of password
func (u *User) SetPassword(password string) error {
	if password == "" {
		return errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
