// Package members manages user records within a gym. All writes go
// through the access matrix: creation is limited by administrative reach,
// updates by the per-role editable-field lists.
package members

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dojohub/entity"
	"dojohub/impl/auth"
	"dojohub/internal/access"
	"dojohub/lib/sl"
)

var (
	ErrForbidden = errors.New("not allowed")
	ErrWrongGym  = errors.New("record belongs to another gym")
)

type Database interface {
	GetUsers(gym string) ([]*entity.User, error)
	GetUserById(id string) (*entity.User, error)
	CreateUser(user *entity.User) error
	UpdateUserFields(id string, fields map[string]interface{}) error
}

type Service struct {
	db  Database
	log *slog.Logger
}

func New(db Database, log *slog.Logger) *Service {
	return &Service{
		db:  db,
		log: log.With(sl.Module("members")),
	}
}

func (s *Service) List(gym string) ([]*entity.User, error) {
	return s.db.GetUsers(gym)
}

func (s *Service) Get(actor *entity.User, id string) (*entity.User, error) {
	user, err := s.db.GetUserById(id)
	if err != nil {
		return nil, err
	}
	if user.Gym != actor.Gym {
		return nil, ErrWrongGym
	}
	return user, nil
}

// Create adds an account in the actor's gym. The actor must be able to
// administer the requested role.
func (s *Service) Create(actor *entity.User, user *entity.User, password string) (*entity.User, error) {
	if !access.CanAdminister(actor.Role, user.Role) {
		return nil, ErrForbidden
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.Gym = actor.Gym
	user.PasswordHash = hash
	user.Active = true
	user.JoinedAt = time.Now()
	if err = s.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.With(
		sl.Gym(user.Gym),
		slog.String("user_id", user.Id.Hex()),
		slog.String("role", string(user.Role)),
	).Info("user created")
	return user, nil
}

// Register creates a member account through a validated registration
// link, without any acting administrator.
func (s *Service) Register(gym, name, email, password string) (*entity.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		Gym:          gym,
		Name:         name,
		Email:        email,
		Role:         entity.RoleMember,
		PasswordHash: hash,
		Active:       true,
		JoinedAt:     time.Now(),
	}
	if err = s.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.With(
		sl.Gym(gym),
		slog.String("user_id", user.Id.Hex()),
	).Info("member registered via link")
	return user, nil
}

// Update applies a partial update to the target record, keeping only the
// fields the actor may edit. A patch left empty after filtering is a
// denial, not a no-op.
func (s *Service) Update(actor *entity.User, targetId string, patch map[string]interface{}) (*entity.User, error) {
	target, err := s.db.GetUserById(targetId)
	if err != nil {
		return nil, err
	}
	if target.Gym != actor.Gym {
		return nil, ErrWrongGym
	}

	allowed := access.EditableFields(actor, target)
	filtered := make(map[string]interface{})
	for _, f := range allowed {
		if v, ok := patch[f]; ok {
			filtered[f] = v
		}
	}
	if len(filtered) == 0 {
		return nil, ErrForbidden
	}
	if v, ok := filtered["role"]; ok {
		role, isString := v.(string)
		if !isString || !entity.Role(role).Valid() {
			return nil, fmt.Errorf("unknown role %v", v)
		}
	}

	if err = s.db.UpdateUserFields(targetId, filtered); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.log.With(
		slog.String("user_id", targetId),
		slog.Int("fields", len(filtered)),
	).Info("user updated")
	return s.db.GetUserById(targetId)
}
