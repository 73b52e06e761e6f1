package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "orders", Order{}.TableName())
	assert.Equal(t, "payments", Payment{}.TableName())
	assert.Equal(t, "order_logs", OrderLog{}.TableName())
	assert.Equal(t, "order_images", OrderImage{}.TableName())
}

func TestUserRoleValues(t *testing.T) {
	tests := []struct {
		name string
		role string
	}{
		{"staff role", RoleStaff},
		{"owner role", RoleOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Email: "test@example.com", Role: tt.role}
			assert.Equal(t, tt.role, user.Role, "Role should be set correctly")
		})
	}
}
