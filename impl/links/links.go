// Package links owns the registration-link lifecycle: issue, validate and
// consume, revoke, expire. A link moves from ACTIVE to exactly one of
// EXPIRED, REVOKED or EXHAUSTED and never comes back. Expiry is lazy:
// every read path first sweeps the gym's overdue ACTIVE link instead of
// relying on a scheduled job, which keeps staleness bounded by the next
// read — acceptable because link validity tolerates days of imprecision.
package links

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"dojohub/entity"
	"dojohub/lib/clock"
	"dojohub/lib/sl"
)

// Fixed validation messages returned to public callers.
const (
	MsgNotFound  = "Link not found"
	MsgWrongGym  = "Invalid gym for this link"
	MsgExpired   = "Link has expired"
	MsgRevoked   = "Link has been revoked"
	MsgInvalid   = "Link is invalid"
	MsgExhausted = "Link has reached the maximum number of uses"
	MsgInternal  = "Error validating link"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrExhaustedRevoke is a recoverable, caller-visible condition; the
// message text is part of the API contract.
var ErrExhaustedRevoke = errors.New("Cannot revoke an exhausted registration link")

type Database interface {
	CreateRegistrationLink(link *entity.RegistrationLink) error
	GetRegistrationLinks(gym string) ([]*entity.RegistrationLink, error)
	GetActiveRegistrationLink(gym string, now time.Time) (*entity.RegistrationLink, error)
	GetRegistrationLinkByToken(token string) (*entity.RegistrationLink, error)
	GetRegistrationLinkById(id string) (*entity.RegistrationLink, error)
	SetRegistrationLinkStatus(id string, status entity.LinkStatus) error
	SetRegistrationLinkRevoked(id, revokedBy string, revokedAt time.Time) error
	SetRegistrationLinkUsage(id string, count int) error
	ExpireStaleRegistrationLink(gym string, now time.Time) error
}

type Service struct {
	db      Database
	baseURL string
	log     *slog.Logger
	now     func() time.Time
}

func New(db Database, baseURL string, log *slog.Logger) *Service {
	return &Service{
		db:      db,
		baseURL: baseURL,
		log:     log.With(sl.Module("links")),
		now:     time.Now,
	}
}

// GeneratedLink is what the creating admin gets back: the public URL to
// hand out and when it stops working.
type GeneratedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validation is the result shape of Validate. Exactly one of Link and
// Error is set; Validate itself never fails past this shape.
type Validation struct {
	Link  *entity.RegistrationLink `json:"link,omitempty"`
	Error string                   `json:"error,omitempty"`
}

// Generate issues a new link for the gym: random 17-character private
// token, 7-day expiry, unlimited uses. It does not look for an existing
// ACTIVE link first, so a gym can momentarily hold several — callers that
// care should check GetActiveRegistrationLink themselves.
func (s *Service) Generate(actor *entity.User, gym string) (*GeneratedLink, error) {
	token, err := randomToken(entity.PrivateTokenLen)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	now := s.now()
	link := &entity.RegistrationLink{
		Token:      token,
		Gym:        gym,
		Status:     entity.LinkActive,
		UsageCount: 0,
		MaxUses:    nil,
		CreatedBy:  actor.Id.Hex(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(clock.LinkTTL),
	}
	if err = s.db.CreateRegistrationLink(link); err != nil {
		return nil, fmt.Errorf("create registration link: %w", err)
	}
	public := entity.EncodePublicToken(token, gym)
	s.log.With(
		sl.Gym(gym),
		slog.String("link_id", link.Id.Hex()),
		slog.Time("expires_at", link.ExpiresAt),
	).Info("registration link created")

	return &GeneratedLink{
		URL:       fmt.Sprintf("%s/%s", s.baseURL, public),
		ExpiresAt: link.ExpiresAt,
	}, nil
}

// List returns every link of the gym, sweeping the overdue ACTIVE one
// into EXPIRED first so the listing reflects reality.
func (s *Service) List(gym string) ([]*entity.RegistrationLink, error) {
	if err := s.db.ExpireStaleRegistrationLink(gym, s.now()); err != nil {
		return nil, fmt.Errorf("expire sweep: %w", err)
	}
	return s.db.GetRegistrationLinks(gym)
}

// Validate decodes the public token, sweeps, and consumes one use of the
// gym's active link. Calling Validate IS consuming a use; there is no
// read-only probe. On any failure the result carries one of the fixed
// messages; persistence faults are logged and reported as MsgInternal.
func (s *Service) Validate(publicToken string) *Validation {
	now := s.now()
	// a malformed token is not guarded separately: it falls through to
	// the lookup miss below with empty decode results
	gym, token, decodeErr := entity.DecodePublicToken(publicToken)
	if decodeErr != nil {
		s.log.Debug("public token decode failed", sl.Err(decodeErr))
	}

	if err := s.db.ExpireStaleRegistrationLink(gym, now); err != nil {
		s.log.Error("expire sweep", sl.Err(err), sl.Gym(gym))
		return &Validation{Error: MsgInternal}
	}

	link, err := s.db.GetActiveRegistrationLink(gym, now)
	if err != nil {
		s.log.Error("find active link", sl.Err(err), sl.Gym(gym))
		return &Validation{Error: MsgInternal}
	}
	if link == nil {
		return s.diagnose(token, gym, now)
	}

	if !link.UsesLeft() {
		if err = s.exhaust(link); err != nil {
			s.log.Error("exhaust link", sl.Err(err), slog.String("link_id", link.Id.Hex()))
			return &Validation{Error: MsgInternal}
		}
		return &Validation{Error: MsgExhausted}
	}

	// read-then-write on purpose: two racing validations at the maxUses
	// boundary can overshoot by one before the next read notices; the
	// overshoot is accepted rather than paying for a conditional update
	link.UsageCount++
	if err = s.db.SetRegistrationLinkUsage(link.Id.Hex(), link.UsageCount); err != nil {
		s.log.Error("persist usage count", sl.Err(err), slog.String("link_id", link.Id.Hex()))
		return &Validation{Error: MsgInternal}
	}
	s.log.With(
		sl.Gym(gym),
		slog.String("link_id", link.Id.Hex()),
		slog.Int("usage_count", link.UsageCount),
	).Debug("registration link consumed")
	return &Validation{Link: link}
}

// diagnose explains why no active link matched, looking the record up by
// its raw private token regardless of status. Order matters: not found,
// wrong gym, expired, revoked, then the generic catch-all.
func (s *Service) diagnose(token, gym string, now time.Time) *Validation {
	link, err := s.db.GetRegistrationLinkByToken(token)
	if err != nil {
		s.log.Error("find link by token", sl.Err(err))
		return &Validation{Error: MsgInternal}
	}
	switch {
	case link == nil:
		return &Validation{Error: MsgNotFound}
	case link.Gym != gym:
		return &Validation{Error: MsgWrongGym}
	case link.Status == entity.LinkExpired || link.IsExpired(now):
		return &Validation{Error: MsgExpired}
	case link.Status == entity.LinkRevoked:
		return &Validation{Error: MsgRevoked}
	default:
		return &Validation{Error: MsgInvalid}
	}
}

// Revoke terminates a link on request of an owner or admin. An exhausted
// link cannot be revoked: it is already out of uses and rewriting its
// status would lose that fact.
func (s *Service) Revoke(id string, actor *entity.User) error {
	link, err := s.db.GetRegistrationLinkById(id)
	if err != nil {
		return fmt.Errorf("get registration link: %w", err)
	}
	if link.Status == entity.LinkExhausted {
		return ErrExhaustedRevoke
	}
	if err = s.db.SetRegistrationLinkRevoked(id, actor.Id.Hex(), s.now()); err != nil {
		return fmt.Errorf("revoke registration link: %w", err)
	}
	s.log.With(
		slog.String("link_id", id),
		slog.String("revoked_by", actor.Id.Hex()),
	).Info("registration link revoked")
	return nil
}

// ForceExpire is the administrative override: the link goes to EXPIRED no
// matter its current status or timestamp, unlike the lazy sweep.
func (s *Service) ForceExpire(id string) error {
	if err := s.db.SetRegistrationLinkStatus(id, entity.LinkExpired); err != nil {
		return fmt.Errorf("expire registration link: %w", err)
	}
	s.log.With(slog.String("link_id", id)).Info("registration link expired by admin")
	return nil
}

func (s *Service) exhaust(link *entity.RegistrationLink) error {
	return s.db.SetRegistrationLinkStatus(link.Id.Hex(), entity.LinkExhausted)
}

func randomToken(length int) (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}
