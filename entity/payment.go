package entity

import (
	"net/http"
	"time"

	"dojohub/lib/validate"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodStripe PaymentMethod = "stripe"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentExpired  PaymentStatus = "expired"
	PaymentCanceled PaymentStatus = "canceled"
)

// Payment covers one subscription period of a member on a plan. Cash
// payments are recorded as paid immediately; Stripe payments start as
// pending and are resolved by the checkout webhook or by the hourly sweep.
type Payment struct {
	Id          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Receipt     string             `json:"receipt" bson:"receipt"`
	Gym         string             `json:"gym" bson:"gym"`
	Member      string             `json:"member" bson:"member" validate:"required"`
	Plan        string             `json:"plan" bson:"plan" validate:"required"`
	Amount      int64              `json:"amount" bson:"amount"`
	Currency    string             `json:"currency" bson:"currency"`
	Method      PaymentMethod      `json:"method" bson:"method" validate:"required,oneof=cash stripe"`
	Status      PaymentStatus      `json:"status" bson:"status"`
	PeriodStart time.Time          `json:"period_start" bson:"period_start"`
	PeriodEnd   time.Time          `json:"period_end" bson:"period_end"`
	SessionId   string             `json:"session_id,omitempty" bson:"session_id,omitempty"`
	CheckoutURL string             `json:"checkout_url,omitempty" bson:"-"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	PaidAt      *time.Time         `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
}

func (p *Payment) Bind(_ *http.Request) error {
	return validate.Struct(p)
}
