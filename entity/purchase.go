package entity

import (
	"net/http"
	"time"

	"codepool/lib/validate"

	"github.com/biter777/countries"
)

// PurchaseOrder is a buyer's intent to pay for codes before they are
// issued. It becomes a checkout session; fulfillment happens when the
// payment provider confirms the session as paid.
type PurchaseOrder struct {
	Service    string         `json:"service" bson:"service" validate:"required"`
	Quantity   int            `json:"quantity" bson:"quantity" validate:"required,min=1"`
	Client     *ClientDetails `json:"client" bson:"client" validate:"required"`
	SuccessUrl string         `json:"success_url" bson:"success_url" validate:"required,url"`
	Created    time.Time      `json:"created" bson:"created"`
	SessionId  string         `json:"session_id,omitempty" bson:"session_id,omitempty"`
}

func (p *PurchaseOrder) Bind(_ *http.Request) error {
	p.Created = time.Now()
	return validate.Struct(p)
}

type ClientDetails struct {
	Name    string `json:"name" bson:"name" validate:"required"`
	Email   string `json:"email" bson:"email" validate:"required,email"`
	Phone   string `json:"phone" bson:"phone"`
	Country string `json:"country" bson:"country"`
}

// CountryCode normalizes Country to an ISO alpha-2 code, accepting either a
// code or a full country name. Empty result when nothing matches.
func (c *ClientDetails) CountryCode() string {
	if c.Country == "" {
		return ""
	}
	if len(c.Country) == 2 {
		return c.Country
	}
	country := countries.ByName(c.Country)
	code := country.Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}

// Payment is the checkout link handed back to the buyer.
type Payment struct {
	Id     string `json:"id"`
	Amount int64  `json:"amount"`
	Link   string `json:"link,omitempty"`
}
