package entity

import (
	"net/http"
	"time"

	"dojohub/lib/validate"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan is a membership plan offered by a gym. Price is in minor currency
// units. Duration is expressed either in whole months or in days; months
// take precedence when both are set.
type Plan struct {
	Id             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Gym            string             `json:"gym" bson:"gym"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Description    string             `json:"description,omitempty" bson:"description,omitempty"`
	Price          int64              `json:"price" bson:"price" validate:"required,min=1"`
	Currency       string             `json:"currency" bson:"currency" validate:"required,len=3"`
	DurationMonths int                `json:"duration_months,omitempty" bson:"duration_months,omitempty" validate:"omitempty,min=1"`
	DurationDays   int                `json:"duration_days,omitempty" bson:"duration_days,omitempty" validate:"omitempty,min=1"`
	Active         bool               `json:"active" bson:"active"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

func (p *Plan) Bind(_ *http.Request) error {
	if p.DurationMonths == 0 && p.DurationDays == 0 {
		p.DurationMonths = 1
	}
	return validate.Struct(p)
}

// PeriodEnd advances a subscription period start by the plan's duration.
func (p *Plan) PeriodEnd(start time.Time) time.Time {
	if p.DurationMonths > 0 {
		return start.AddDate(0, p.DurationMonths, 0)
	}
	return start.AddDate(0, 0, p.DurationDays)
}
