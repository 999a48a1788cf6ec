// model/permissions_test.go
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odoo-mcp/odoo-mcp-server/model"
)

func TestCanPerform(t *testing.T) {
	perms := model.ModelPermissions{
		Model:     "res.partner",
		Enabled:   true,
		CanRead:   true,
		CanWrite:  false,
		CanCreate: true,
		CanUnlink: false,
	}

	assert.True(t, perms.CanPerform("read"))
	assert.False(t, perms.CanPerform("write"))
	assert.True(t, perms.CanPerform("create"))
	assert.False(t, perms.CanPerform("unlink"))
	assert.False(t, perms.CanPerform("export"))
}

func TestCanPerform_DeleteIsUnlinkAlias(t *testing.T) {
	for _, unlink := range []bool{true, false} {
		perms := model.ModelPermissions{Model: "res.partner", Enabled: true, CanUnlink: unlink}
		assert.Equal(t, perms.CanPerform("unlink"), perms.CanPerform("delete"))
		assert.Equal(t, unlink, perms.CanPerform("delete"))
	}
}
