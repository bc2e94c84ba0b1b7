package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAddItem(t *testing.T) {
	assert.True(t, CanAddItem(0, false))
	assert.True(t, CanAddItem(2, false))
	assert.False(t, CanAddItem(3, false))
	assert.False(t, CanAddItem(10, false))
	assert.True(t, CanAddItem(3, true))
	assert.True(t, CanAddItem(1000, true))
}

func TestCurrentUserFlags(t *testing.T) {
	u := User{Plan: PlanPro, Role: RoleAdmin}
	cu := u.Current()
	assert.True(t, cu.IsPro())
	assert.True(t, cu.IsAdmin())

	free := CurrentUser{PlanTier: PlanFree, Role: RoleUser}
	assert.False(t, free.IsPro())
	assert.False(t, free.IsAdmin())
}
