package links

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"dojohub/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubDB keeps links in a slice, mimicking the store's query semantics.
type stubDB struct {
	links []*entity.RegistrationLink
}

func (s *stubDB) CreateRegistrationLink(link *entity.RegistrationLink) error {
	link.Id = primitive.NewObjectID()
	s.links = append(s.links, link)
	return nil
}

func (s *stubDB) GetRegistrationLinks(gym string) ([]*entity.RegistrationLink, error) {
	var out []*entity.RegistrationLink
	for _, l := range s.links {
		if l.Gym == gym {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubDB) GetActiveRegistrationLink(gym string, now time.Time) (*entity.RegistrationLink, error) {
	for _, l := range s.links {
		if l.Gym == gym && l.Status == entity.LinkActive && l.ExpiresAt.After(now) {
			return l, nil
		}
	}
	return nil, nil
}

func (s *stubDB) GetRegistrationLinkByToken(token string) (*entity.RegistrationLink, error) {
	for _, l := range s.links {
		if l.Token == token {
			return l, nil
		}
	}
	return nil, nil
}

func (s *stubDB) GetRegistrationLinkById(id string) (*entity.RegistrationLink, error) {
	for _, l := range s.links {
		if l.Id.Hex() == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("link %s not found", id)
}

func (s *stubDB) SetRegistrationLinkStatus(id string, status entity.LinkStatus) error {
	l, err := s.GetRegistrationLinkById(id)
	if err != nil {
		return err
	}
	l.Status = status
	return nil
}

func (s *stubDB) SetRegistrationLinkRevoked(id, revokedBy string, revokedAt time.Time) error {
	l, err := s.GetRegistrationLinkById(id)
	if err != nil {
		return err
	}
	l.Status = entity.LinkRevoked
	l.RevokedBy = revokedBy
	l.RevokedAt = &revokedAt
	return nil
}

func (s *stubDB) SetRegistrationLinkUsage(id string, count int) error {
	l, err := s.GetRegistrationLinkById(id)
	if err != nil {
		return err
	}
	l.UsageCount = count
	return nil
}

func (s *stubDB) ExpireStaleRegistrationLink(gym string, now time.Time) error {
	for _, l := range s.links {
		if l.Gym == gym && l.Status == entity.LinkActive && l.ExpiresAt.Before(now) {
			l.Status = entity.LinkExpired
			return nil
		}
	}
	return nil
}

func newTestService(db *stubDB) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, "https://gym.test/register", log)
}

func testActor() *entity.User {
	return &entity.User{
		Id:   primitive.NewObjectID(),
		Gym:  "gym-1",
		Role: entity.RoleAdmin,
	}
}

func seedLink(db *stubDB, gym, token string, status entity.LinkStatus, expiresAt time.Time, maxUses *int) *entity.RegistrationLink {
	link := &entity.RegistrationLink{
		Id:        primitive.NewObjectID(),
		Token:     token,
		Gym:       gym,
		Status:    status,
		MaxUses:   maxUses,
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
	db.links = append(db.links, link)
	return link
}

func TestGenerate(t *testing.T) {
	db := &stubDB{}
	svc := newTestService(db)
	actor := testActor()

	before := time.Now()
	got, err := svc.Generate(actor, actor.Gym)
	require.NoError(t, err)

	require.Len(t, db.links, 1)
	link := db.links[0]
	assert.Equal(t, entity.LinkActive, link.Status)
	assert.Equal(t, 0, link.UsageCount)
	assert.Nil(t, link.MaxUses, "default is unlimited uses")
	assert.Len(t, link.Token, entity.PrivateTokenLen)
	assert.Equal(t, actor.Id.Hex(), link.CreatedBy)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), got.ExpiresAt, 5*time.Second)

	require.True(t, strings.HasPrefix(got.URL, "https://gym.test/register/"))
	public := strings.TrimPrefix(got.URL, "https://gym.test/register/")
	gym, token, err := entity.DecodePublicToken(public)
	require.NoError(t, err)
	assert.Equal(t, actor.Gym, gym)
	assert.Equal(t, link.Token, token)
}

func TestGenerateDoesNotCheckForActiveLink(t *testing.T) {
	// creating a second link while one is still ACTIVE is current
	// behavior; the single-active invariant is the caller's problem
	db := &stubDB{}
	svc := newTestService(db)
	actor := testActor()

	_, err := svc.Generate(actor, actor.Gym)
	require.NoError(t, err)
	_, err = svc.Generate(actor, actor.Gym)
	require.NoError(t, err)

	active := 0
	for _, l := range db.links {
		if l.Status == entity.LinkActive {
			active++
		}
	}
	assert.Equal(t, 2, active)
}

func TestValidateConsumesUses(t *testing.T) {
	db := &stubDB{}
	svc := newTestService(db)
	two := 2
	link := seedLink(db, "gym-1", "a1B2c3D4e5F6g7H8i", entity.LinkActive, time.Now().Add(time.Hour), &two)
	public := entity.EncodePublicToken(link.Token, link.Gym)

	first := svc.Validate(public)
	require.Empty(t, first.Error)
	assert.Equal(t, 1, link.UsageCount)

	second := svc.Validate(public)
	require.Empty(t, second.Error)
	assert.Equal(t, 2, link.UsageCount)

	third := svc.Validate(public)
	assert.Equal(t, MsgExhausted, third.Error)
	assert.Nil(t, third.Link)
	assert.Equal(t, entity.LinkExhausted, link.Status)
	assert.Equal(t, 2, link.UsageCount, "the failed call does not consume")
}

func TestValidateLazyExpiry(t *testing.T) {
	db := &stubDB{}
	svc := newTestService(db)
	link := seedLink(db, "gym-1", "a1B2c3D4e5F6g7H8i", entity.LinkActive, time.Now().Add(-time.Minute), nil)
	public := entity.EncodePublicToken(link.Token, link.Gym)

	result := svc.Validate(public)
	assert.Equal(t, MsgExpired, result.Error)
	assert.Equal(t, entity.LinkExpired, link.Status, "sweep ran before evaluation")
}

func TestListRunsExpireSweep(t *testing.T) {
	db := &stubDB{}
	svc := newTestService(db)
	link := seedLink(db, "gym-1", "a1B2c3D4e5F6g7H8i", entity.LinkActive, time.Now().Add(-time.Minute), nil)

	all, err := svc.List("gym-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, entity.LinkExpired, link.Status)
}

func TestValidateDiagnostics(t *testing.T) {
	token := "a1B2c3D4e5F6g7H8i"

	tests := []struct {
		name  string
		seed  func(db *stubDB)
		input string
		want  string
	}{
		{
			name:  "unknown token",
			seed:  func(db *stubDB) {},
			input: entity.EncodePublicToken(token, "gym-1"),
			want:  MsgNotFound,
		},
		{
			name:  "malformed token is a lookup miss",
			seed:  func(db *stubDB) {},
			input: "garbage",
			want:  MsgNotFound,
		},
		{
			name: "wrong gym",
			seed: func(db *stubDB) {
				seedLink(db, "gym-2", token, entity.LinkActive, time.Now().Add(time.Hour), nil)
			},
			input: entity.EncodePublicToken(token, "gym-1"),
			want:  MsgWrongGym,
		},
		{
			name: "expired",
			seed: func(db *stubDB) {
				seedLink(db, "gym-1", token, entity.LinkExpired, time.Now().Add(-time.Hour), nil)
			},
			input: entity.EncodePublicToken(token, "gym-1"),
			want:  MsgExpired,
		},
		{
			name: "revoked",
			seed: func(db *stubDB) {
				seedLink(db, "gym-1", token, entity.LinkRevoked, time.Now().Add(time.Hour), nil)
			},
			input: entity.EncodePublicToken(token, "gym-1"),
			want:  MsgRevoked,
		},
		{
			name: "exhausted link is generically invalid",
			seed: func(db *stubDB) {
				seedLink(db, "gym-1", token, entity.LinkExhausted, time.Now().Add(time.Hour), nil)
			},
			input: entity.EncodePublicToken(token, "gym-1"),
			want:  MsgInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &stubDB{}
			tt.seed(db)
			svc := newTestService(db)
			result := svc.Validate(tt.input)
			assert.Equal(t, tt.want, result.Error)
			assert.Nil(t, result.Link)
		})
	}
}

func TestRevoke(t *testing.T) {
	t.Run("active link", func(t *testing.T) {
		db := &stubDB{}
		svc := newTestService(db)
		actor := testActor()
		link := seedLink(db, "gym-1", "a1B2c3D4e5F6g7H8i", entity.LinkActive, time.Now().Add(time.Hour), nil)

		err := svc.Revoke(link.Id.Hex(), actor)
		require.NoError(t, err)
		assert.Equal(t, entity.LinkRevoked, link.Status)
		assert.Equal(t, actor.Id.Hex(), link.RevokedBy)
		require.NotNil(t, link.RevokedAt)
		assert.WithinDuration(t, time.Now(), *link.RevokedAt, 5*time.Second)
	})

	t.Run("exhausted link is rejected", func(t *testing.T) {
		db := &stubDB{}
		svc := newTestService(db)
		link := seedLink(db, "gym-1", "a1B2c3D4e5F6g7H8i", entity.LinkExhausted, time.Now().Add(time.Hour), nil)

		err := svc.Revoke(link.Id.Hex(), testActor())
		require.Error(t, err)
		assert.Equal(t, "Cannot revoke an exhausted registration link", err.Error())
		assert.Equal(t, entity.LinkExhausted, link.Status)
	})
}

func TestForceExpire(t *testing.T) {
	// the administrative override ignores current state and timestamp
	db := &stubDB{}
	svc := newTestService(db)
	link := seedLink(db, "gym-1", "a1B2c3D4e5F6g7H8i", entity.LinkRevoked, time.Now().Add(time.Hour), nil)

	err := svc.ForceExpire(link.Id.Hex())
	require.NoError(t, err)
	assert.Equal(t, entity.LinkExpired, link.Status)
}

func TestRandomToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := randomToken(entity.PrivateTokenLen)
		require.NoError(t, err)
		assert.Len(t, token, entity.PrivateTokenLen)
		for _, c := range token {
			assert.Contains(t, tokenAlphabet, string(c))
		}
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}
