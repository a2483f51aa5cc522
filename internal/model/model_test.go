package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	var u User
	assert.False(t, u.CheckPassword(""), "no hash set")

	require.NoError(t, u.SetPassword("correct horse"))
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("Correct horse"))
	assert.False(t, u.CheckPassword(""))

	first := u.PasswordHash
	require.NoError(t, u.SetPassword("correct horse"))
	assert.NotEqual(t, first, u.PasswordHash, "hashes are salted")

	assert.Error(t, u.SetPassword(""))
}

func TestNewTenantDefaults(t *testing.T) {
	tenant := NewTenant("Acme", "acme", "a@acme.com")

	assert.Equal(t, DefaultMaxUsers, tenant.MaxUsers)
	assert.True(t, tenant.IsActive)
	assert.Equal(t, DefaultSubscriptionPlan, tenant.SubscriptionPlan)
	assert.Nil(t, tenant.ContactPhone)
	assert.Nil(t, tenant.SubscriptionExpires)
}

func TestTenantAfterFindNormalizesZone(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)
	expires := time.Date(2030, 1, 1, 7, 0, 0, 0, bangkok)
	tenant := Tenant{
		CreatedAt:           time.Date(2025, 3, 1, 9, 0, 0, 0, bangkok),
		UpdatedAt:           time.Date(2025, 3, 2, 9, 0, 0, 0, bangkok),
		SubscriptionExpires: &expires,
	}

	require.NoError(t, tenant.AfterFind(nil))
	assert.Equal(t, time.UTC, tenant.CreatedAt.Location())
	assert.Equal(t, 2, tenant.CreatedAt.Hour())
	assert.Equal(t, time.UTC, tenant.UpdatedAt.Location())
	assert.Equal(t, "2030-01-01T00:00:00Z", tenant.SubscriptionExpires.Format(time.RFC3339))
	assert.Equal(t, bangkok, expires.Location(), "caller's value is not mutated")
}
