package access

import (
	"testing"

	"dojohub/entity"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateAccess(t *testing.T) {
	all := []entity.Role{entity.RoleOwner, entity.RoleAdmin, entity.RoleStaff, entity.RoleMember}

	t.Run("owner bypasses any allow-list", func(t *testing.T) {
		lists := [][]entity.Role{
			{},
			{entity.RoleMember},
			{entity.RoleStaff, entity.RoleMember},
			{entity.RoleAdmin},
		}
		for _, l := range lists {
			assert.True(t, ValidateAccess(l, entity.RoleOwner))
		}
	})

	t.Run("empty allow-list grants everyone", func(t *testing.T) {
		for _, r := range all {
			assert.True(t, ValidateAccess(nil, r))
			assert.True(t, ValidateAccess([]entity.Role{}, r))
		}
	})

	t.Run("non-owner needs membership", func(t *testing.T) {
		list := []entity.Role{entity.RoleAdmin, entity.RoleStaff}
		assert.True(t, ValidateAccess(list, entity.RoleAdmin))
		assert.True(t, ValidateAccess(list, entity.RoleStaff))
		assert.False(t, ValidateAccess(list, entity.RoleMember))
	})
}

func TestCanAdminister(t *testing.T) {
	tests := []struct {
		name   string
		actor  entity.Role
		target entity.Role
		want   bool
	}{
		{"owner manages admin", entity.RoleOwner, entity.RoleAdmin, true},
		{"owner manages owner", entity.RoleOwner, entity.RoleOwner, true},
		{"admin manages staff", entity.RoleAdmin, entity.RoleStaff, true},
		{"admin manages member", entity.RoleAdmin, entity.RoleMember, true},
		{"admin cannot manage admin", entity.RoleAdmin, entity.RoleAdmin, false},
		{"staff manages member", entity.RoleStaff, entity.RoleMember, true},
		{"staff cannot manage staff", entity.RoleStaff, entity.RoleStaff, false},
		{"member manages nobody", entity.RoleMember, entity.RoleMember, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAdminister(tt.actor, tt.target))
		})
	}
}

func userWithRole(role entity.Role) *entity.User {
	return &entity.User{Id: primitive.NewObjectID(), Role: role}
}

func TestEditableFields(t *testing.T) {
	t.Run("peer cannot edit peer", func(t *testing.T) {
		editor := userWithRole(entity.RoleStaff)
		target := userWithRole(entity.RoleStaff)
		assert.Empty(t, EditableFields(editor, target))
	})

	t.Run("lower rank cannot edit higher", func(t *testing.T) {
		editor := userWithRole(entity.RoleMember)
		target := userWithRole(entity.RoleOwner)
		assert.Empty(t, EditableFields(editor, target))
	})

	t.Run("self edit always allowed", func(t *testing.T) {
		editor := userWithRole(entity.RoleMember)
		fields := EditableFields(editor, editor)
		assert.ElementsMatch(t, []string{"name", "email", "phone"}, fields)
	})

	t.Run("owner edits admin including role and rank", func(t *testing.T) {
		fields := EditableFields(userWithRole(entity.RoleOwner), userWithRole(entity.RoleAdmin))
		assert.Contains(t, fields, "role")
		assert.Contains(t, fields, "rank")
	})

	t.Run("admin edits staff role and rank", func(t *testing.T) {
		fields := EditableFields(userWithRole(entity.RoleAdmin), userWithRole(entity.RoleStaff))
		assert.Contains(t, fields, "role")
		assert.Contains(t, fields, "rank")
	})

	t.Run("admin editing self keeps member fields but loses role and rank", func(t *testing.T) {
		// self-edit of an admin record: target is an admin, so the
		// layered restriction strips role and rank
		admin := userWithRole(entity.RoleAdmin)
		fields := EditableFields(admin, admin)
		assert.Contains(t, fields, "name")
		assert.NotContains(t, fields, "role")
		assert.NotContains(t, fields, "rank")
	})

	t.Run("staff never edits role or rank", func(t *testing.T) {
		fields := EditableFields(userWithRole(entity.RoleStaff), userWithRole(entity.RoleMember))
		assert.NotContains(t, fields, "role")
		assert.NotContains(t, fields, "rank")
	})

	t.Run("monotonic by rank", func(t *testing.T) {
		adminFields := EditableFields(userWithRole(entity.RoleAdmin), userWithRole(entity.RoleStaff))
		staffFields := EditableFields(userWithRole(entity.RoleStaff), userWithRole(entity.RoleMember))
		for _, f := range staffFields {
			assert.Contains(t, adminFields, f)
		}
	})
}
