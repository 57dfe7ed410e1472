package entity

import (
	"net/http"
	"time"

	"dojohub/lib/validate"

	"github.com/biter777/countries"
)

// Gym is the tenant: every user, plan, payment and registration link
// belongs to exactly one gym.
type Gym struct {
	Id        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name" validate:"required"`
	Address   string    `json:"address,omitempty" bson:"address,omitempty"`
	City      string    `json:"city,omitempty" bson:"city,omitempty"`
	Country   string    `json:"country,omitempty" bson:"country,omitempty"`
	Currency  string    `json:"currency" bson:"currency" validate:"required,len=3"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (g *Gym) Bind(_ *http.Request) error {
	g.NormalizeCountry()
	return validate.Struct(g)
}

// NormalizeCountry converts whatever the client sent ("poland", "PL",
// "Polska") to the ISO alpha-2 code, leaving the field untouched when the
// value is unrecognized.
func (g *Gym) NormalizeCountry() {
	if g.Country == "" {
		return
	}
	c := countries.ByName(g.Country)
	if c == countries.Unknown {
		return
	}
	g.Country = c.Alpha2()
}
