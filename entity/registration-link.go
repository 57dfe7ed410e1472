package entity

import (
	"encoding/base64"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LinkStatus is the lifecycle state of a registration link.
// ACTIVE is the only non-terminal state; a link never leaves
// EXPIRED, REVOKED or EXHAUSTED once there.
type LinkStatus string

const (
	LinkActive    LinkStatus = "ACTIVE"
	LinkExpired   LinkStatus = "EXPIRED"
	LinkRevoked   LinkStatus = "REVOKED"
	LinkExhausted LinkStatus = "EXHAUSTED"
)

func (s LinkStatus) Terminal() bool {
	return s == LinkExpired || s == LinkRevoked || s == LinkExhausted
}

// PrivateTokenLen is the length of the random private token. base64 of
// 17 ASCII characters is always a 24-character padded segment, which is
// what DecodePublicToken relies on: change one, change both.
const (
	PrivateTokenLen  = 17
	publicTokenSplit = 24
)

// RegistrationLink lets a gym onboard new members without manual account
// creation. The stored token is the private secret; what gets distributed
// is the public token built by EncodePublicToken. Links are never deleted,
// only moved to a terminal status.
type RegistrationLink struct {
	Id         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Token      string             `json:"-" bson:"token"`
	Gym        string             `json:"gym" bson:"gym"`
	Status     LinkStatus         `json:"status" bson:"status"`
	UsageCount int                `json:"usage_count" bson:"usage_count"`
	MaxUses    *int               `json:"max_uses,omitempty" bson:"max_uses,omitempty"`
	CreatedBy  string             `json:"created_by" bson:"created_by"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time          `json:"expires_at" bson:"expires_at"`
	RevokedBy  string             `json:"revoked_by,omitempty" bson:"revoked_by,omitempty"`
	RevokedAt  *time.Time         `json:"revoked_at,omitempty" bson:"revoked_at,omitempty"`
}

// IsExpired reports whether the link's deadline has passed, regardless of
// the stored status. The stored status may lag behind until the next sweep.
func (l *RegistrationLink) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// UsesLeft reports whether the link still has capacity. A nil MaxUses
// means unlimited.
func (l *RegistrationLink) UsesLeft() bool {
	if l.MaxUses == nil {
		return true
	}
	return l.UsageCount < *l.MaxUses
}

// EncodePublicToken builds the distributable credential from the private
// token and the gym id: base64(token) directly followed by base64(gymId),
// no delimiter. The private segment has a fixed encoded length, so the
// concatenation stays parseable.
func EncodePublicToken(token, gymId string) string {
	return base64.StdEncoding.EncodeToString([]byte(token)) +
		base64.StdEncoding.EncodeToString([]byte(gymId))
}

// DecodePublicToken splits a public token back into gym id and private
// token. The first 24 characters are always the private segment.
func DecodePublicToken(public string) (gymId, token string, err error) {
	if len(public) < publicTokenSplit {
		return "", "", fmt.Errorf("public token too short: %d", len(public))
	}
	t, err := base64.StdEncoding.DecodeString(public[:publicTokenSplit])
	if err != nil {
		return "", "", fmt.Errorf("decode private segment: %w", err)
	}
	g, err := base64.StdEncoding.DecodeString(public[publicTokenSplit:])
	if err != nil {
		return "", "", fmt.Errorf("decode gym segment: %w", err)
	}
	return string(g), string(t), nil
}
