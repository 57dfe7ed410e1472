// Package access is the role/permission matrix: pure lookup tables built
// at init, consulted synchronously per request. Nothing here persists or
// returns errors — callers translate a false decision into a 403.
package access

import (
	"dojohub/entity"
)

// administrable maps a role to the set of roles it may create or manage.
// Administrative reach shrinks down the hierarchy; a member manages nobody.
var administrable = map[entity.Role][]entity.Role{
	entity.RoleOwner:  {entity.RoleOwner, entity.RoleAdmin, entity.RoleStaff, entity.RoleMember},
	entity.RoleAdmin:  {entity.RoleStaff, entity.RoleMember},
	entity.RoleStaff:  {entity.RoleMember},
	entity.RoleMember: {},
}

// editable maps a role to the user-record fields it may change on a target
// record. Each list contains the one below it.
var editable = map[entity.Role][]string{
	entity.RoleMember: {"name", "email", "phone"},
	entity.RoleStaff:  {"name", "email", "phone", "rank"},
	entity.RoleAdmin:  {"name", "email", "phone", "rank", "role", "active"},
	entity.RoleOwner:  {"name", "email", "phone", "rank", "role", "active"},
}

// ValidateAccess decides whether an actor with the given role passes an
// allow-list. An empty list grants everyone in; an owner passes any list.
// Total over the role domain, no error case.
func ValidateAccess(allowed []entity.Role, actor entity.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	if actor == entity.RoleOwner {
		return true
	}
	for _, r := range allowed {
		if r == actor {
			return true
		}
	}
	return false
}

// CanAdminister reports whether actor may create or manage accounts with
// the target role.
func CanAdminister(actor, target entity.Role) bool {
	for _, r := range administrable[actor] {
		if r == target {
			return true
		}
	}
	return false
}

// EditableFields returns the user-record fields the editor may change on
// the target. Editing someone else's record requires strictly outranking
// them; a user can always edit their own record with their role's field
// list. "role" and "rank" are additionally restricted to owners, or to
// admins when the target is not an admin.
func EditableFields(editor, target *entity.User) []string {
	if editor.Id != target.Id && !editor.Role.Outranks(target.Role) {
		return nil
	}
	base := editable[editor.Role]
	fields := make([]string, 0, len(base))
	for _, f := range base {
		if f == "role" || f == "rank" {
			if !canEditRank(editor.Role, target.Role) {
				continue
			}
		}
		fields = append(fields, f)
	}
	return fields
}

func canEditRank(editor, target entity.Role) bool {
	if editor == entity.RoleOwner {
		return true
	}
	return editor == entity.RoleAdmin && target != entity.RoleAdmin
}
