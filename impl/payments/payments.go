// Package payments records membership payments. Cash is settled on the
// spot; gateway payments go through a Stripe Checkout Session and stay
// pending until the webhook confirms them or the hourly sweep gives up.
package payments

import (
	"fmt"
	"log/slog"
	"time"

	"dojohub/entity"
	"dojohub/lib/clock"
	"dojohub/lib/sl"

	"github.com/google/uuid"
)

type Database interface {
	CreatePayment(payment *entity.Payment) error
	GetPayments(gym string) ([]*entity.Payment, error)
	GetPaymentBySession(sessionId string) (*entity.Payment, error)
	SetPaymentStatus(id string, status entity.PaymentStatus, paidAt *time.Time) error
	ExpireStalePayments(cutoff time.Time) (int64, error)
	GetPlan(id string) (*entity.Plan, error)
}

// Gateway creates a hosted checkout page for a pending payment.
type Gateway interface {
	CheckoutLink(payment *entity.Payment, planName string) (sessionId, url string, err error)
}

type Service struct {
	db      Database
	gateway Gateway
	log     *slog.Logger
}

func New(db Database, gateway Gateway, log *slog.Logger) *Service {
	return &Service{
		db:      db,
		gateway: gateway,
		log:     log.With(sl.Module("payments")),
	}
}

func (s *Service) List(gym string) ([]*entity.Payment, error) {
	return s.db.GetPayments(gym)
}

// RecordCash settles a cash payment immediately, deriving amount and
// subscription period from the plan.
func (s *Service) RecordCash(gym, memberId, planId string) (*entity.Payment, error) {
	payment, err := s.newPayment(gym, memberId, planId, entity.MethodCash)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	payment.Status = entity.PaymentPaid
	payment.PaidAt = &now
	if err = s.db.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.log.With(
		sl.Gym(gym),
		slog.String("payment_id", payment.Id.Hex()),
		slog.Int64("amount", payment.Amount),
	).Info("cash payment recorded")
	return payment, nil
}

// StartCheckout opens a Stripe Checkout Session and stores the payment as
// pending. The returned record carries the hosted checkout URL.
func (s *Service) StartCheckout(gym, memberId, planId string) (*entity.Payment, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("payment gateway not connected")
	}
	payment, err := s.newPayment(gym, memberId, planId, entity.MethodStripe)
	if err != nil {
		return nil, err
	}
	plan, err := s.db.GetPlan(planId)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	payment.Status = entity.PaymentPending
	sessionId, url, err := s.gateway.CheckoutLink(payment, plan.Name)
	if err != nil {
		return nil, fmt.Errorf("checkout session: %w", err)
	}
	payment.SessionId = sessionId
	payment.CheckoutURL = url
	if err = s.db.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.log.With(
		sl.Gym(gym),
		slog.String("payment_id", payment.Id.Hex()),
		slog.String("session_id", sessionId),
	).Info("checkout started")
	return payment, nil
}

// SettleSession marks the payment of a completed checkout session paid.
// Unknown sessions are ignored: Stripe retries webhooks and events may
// concern another environment.
func (s *Service) SettleSession(sessionId string) error {
	payment, err := s.db.GetPaymentBySession(sessionId)
	if err != nil {
		return fmt.Errorf("get payment by session: %w", err)
	}
	if payment == nil {
		s.log.Warn("session not found", slog.String("session_id", sessionId))
		return nil
	}
	if payment.Status == entity.PaymentPaid {
		return nil
	}
	now := time.Now()
	if err = s.db.SetPaymentStatus(payment.Id.Hex(), entity.PaymentPaid, &now); err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	s.log.With(
		slog.String("payment_id", payment.Id.Hex()),
		slog.String("session_id", sessionId),
	).Info("payment settled")
	return nil
}

// CancelSession marks the payment of an expired or canceled checkout
// session.
func (s *Service) CancelSession(sessionId string) error {
	payment, err := s.db.GetPaymentBySession(sessionId)
	if err != nil {
		return fmt.Errorf("get payment by session: %w", err)
	}
	if payment == nil || payment.Status != entity.PaymentPending {
		return nil
	}
	if err = s.db.SetPaymentStatus(payment.Id.Hex(), entity.PaymentCanceled, nil); err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	s.log.With(slog.String("session_id", sessionId)).Info("payment canceled")
	return nil
}

// ExpireStale is the hourly sweep body. Fire-and-forget: failures are
// logged, never raised.
func (s *Service) ExpireStale() {
	cutoff := time.Now().Add(-clock.PendingPaymentTTL)
	count, err := s.db.ExpireStalePayments(cutoff)
	if err != nil {
		s.log.Error("expire stale payments", sl.Err(err))
		return
	}
	if count > 0 {
		s.log.With(slog.Int64("count", count)).Info("stale payments expired")
	}
}

func (s *Service) newPayment(gym, memberId, planId string, method entity.PaymentMethod) (*entity.Payment, error) {
	plan, err := s.db.GetPlan(planId)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan.Gym != gym {
		return nil, fmt.Errorf("plan %s does not belong to gym %s", planId, gym)
	}
	now := time.Now()
	return &entity.Payment{
		Receipt:     uuid.NewString(),
		Gym:         gym,
		Member:      memberId,
		Plan:        planId,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Method:      method,
		PeriodStart: now,
		PeriodEnd:   plan.PeriodEnd(now),
		CreatedAt:   now,
	}, nil
}
