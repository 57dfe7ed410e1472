// Package core glues the domain services behind the single Handler
// surface the HTTP layer consumes.
package core

import (
	"fmt"
	"log/slog"
	"time"

	"dojohub/entity"
	"dojohub/impl/auth"
	"dojohub/impl/links"
	"dojohub/impl/members"
	"dojohub/impl/payments"
	"dojohub/impl/plans"
	"dojohub/internal/stripeclient"
	"dojohub/lib/sl"

	"github.com/stripe/stripe-go/v76"
)

type GymStore interface {
	GetGym(id string) (*entity.Gym, error)
	SaveGym(gym *entity.Gym) error
}

type Core struct {
	auth     *auth.Auth
	links    *links.Service
	members  *members.Service
	plans    *plans.Service
	payments *payments.Service
	stripe   *stripeclient.StripeClient
	gyms     GymStore
	log      *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(a *auth.Auth)            { c.auth = a }
func (c *Core) SetLinkService(l *links.Service)        { c.links = l }
func (c *Core) SetMemberService(m *members.Service)    { c.members = m }
func (c *Core) SetPlanService(p *plans.Service)        { c.plans = p }
func (c *Core) SetPaymentService(p *payments.Service)  { c.payments = p }
func (c *Core) SetStripe(s *stripeclient.StripeClient) { c.stripe = s }
func (c *Core) SetGymStore(g GymStore)                 { c.gyms = g }

func (c *Core) Login(email, password string) (string, *entity.User, error) {
	if c.auth == nil {
		return "", nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.Login(email, password)
}

func (c *Core) UserByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

func (c *Core) GenerateLink(actor *entity.User, gym string) (*links.GeneratedLink, error) {
	return c.links.Generate(actor, gym)
}

func (c *Core) ListLinks(gym string) ([]*entity.RegistrationLink, error) {
	return c.links.List(gym)
}

func (c *Core) ValidateLink(publicToken string) *links.Validation {
	return c.links.Validate(publicToken)
}

func (c *Core) RevokeLink(id string, actor *entity.User) error {
	return c.links.Revoke(id, actor)
}

func (c *Core) ExpireLink(id string) error {
	return c.links.ForceExpire(id)
}

func (c *Core) RegisterMember(gym, name, email, password string) (*entity.User, error) {
	return c.members.Register(gym, name, email, password)
}

func (c *Core) ListMembers(gym string) ([]*entity.User, error) {
	return c.members.List(gym)
}

func (c *Core) GetMember(actor *entity.User, id string) (*entity.User, error) {
	return c.members.Get(actor, id)
}

func (c *Core) CreateMember(actor *entity.User, user *entity.User, password string) (*entity.User, error) {
	return c.members.Create(actor, user, password)
}

func (c *Core) UpdateMember(actor *entity.User, id string, patch map[string]interface{}) (*entity.User, error) {
	return c.members.Update(actor, id, patch)
}

func (c *Core) CreatePlan(gym string, plan *entity.Plan) (*entity.Plan, error) {
	return c.plans.Create(gym, plan)
}

func (c *Core) ListPlans(gym string) ([]*entity.Plan, error) {
	return c.plans.List(gym)
}

func (c *Core) GetPlan(gym, id string) (*entity.Plan, error) {
	return c.plans.Get(gym, id)
}

func (c *Core) UpdatePlan(gym string, plan *entity.Plan) (*entity.Plan, error) {
	return c.plans.Update(gym, plan)
}

func (c *Core) DeletePlan(gym, id string) error {
	return c.plans.Delete(gym, id)
}

func (c *Core) ListPayments(gym string) ([]*entity.Payment, error) {
	return c.payments.List(gym)
}

func (c *Core) RecordCashPayment(gym, memberId, planId string) (*entity.Payment, error) {
	return c.payments.RecordCash(gym, memberId, planId)
}

func (c *Core) StartCheckout(gym, memberId, planId string) (*entity.Payment, error) {
	return c.payments.StartCheckout(gym, memberId, planId)
}

func (c *Core) StripeVerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	if c.stripe == nil {
		return false
	}
	return c.stripe.VerifySignature(payload, header, tolerance)
}

func (c *Core) StripeEvent(evt *stripe.Event) {
	if c.stripe == nil {
		c.log.Error("stripe client not connected")
		return
	}
	c.stripe.HandleEvent(evt)
}

func (c *Core) GetGym(id string) (*entity.Gym, error) {
	if c.gyms == nil {
		return nil, fmt.Errorf("gym store not connected")
	}
	return c.gyms.GetGym(id)
}

func (c *Core) SaveGym(gym *entity.Gym) error {
	if c.gyms == nil {
		return fmt.Errorf("gym store not connected")
	}
	return c.gyms.SaveGym(gym)
}
