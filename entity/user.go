package entity

import (
	"net/http"
	"time"

	"dojohub/lib/validate"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role controls what a user may do within their gym.
// Hierarchy: RoleOwner > RoleAdmin > RoleStaff > RoleMember.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleMember Role = "member"
)

// roleOrder maps each role to its position in the hierarchy, owner first.
var roleOrder = map[Role]int{
	RoleOwner:  0,
	RoleAdmin:  1,
	RoleStaff:  2,
	RoleMember: 3,
}

// Valid reports whether the role is one of the four known values.
func (r Role) Valid() bool {
	_, ok := roleOrder[r]
	return ok
}

// Outranks reports whether r sits strictly above other in the hierarchy.
func (r Role) Outranks(other Role) bool {
	ri, ok := roleOrder[r]
	if !ok {
		return false
	}
	oi, ok := roleOrder[other]
	if !ok {
		return false
	}
	return ri < oi
}

// User is a gym account: owners and admins run the gym, staff coach,
// members train. Belt rank is free-form text since grading systems differ
// between disciplines.
type User struct {
	Id           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Gym          string             `json:"gym" bson:"gym" validate:"required"`
	Name         string             `json:"name" bson:"name" validate:"required"`
	Email        string             `json:"email" bson:"email" validate:"required,email"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Role         Role               `json:"role" bson:"role" validate:"required,oneof=owner admin staff member"`
	Rank         string             `json:"rank,omitempty" bson:"rank,omitempty"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	Active       bool               `json:"active" bson:"active"`
	JoinedAt     time.Time          `json:"joined_at" bson:"joined_at"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

func (u *User) CanManageLinks() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}
