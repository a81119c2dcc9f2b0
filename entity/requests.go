package entity

import (
	"net/http"

	"codepool/lib/validate"
)

// AllocateRequest asks for a number of codes from one catalog. The
// requester identity comes from the authenticated session, never from the
// body.
type AllocateRequest struct {
	Service  string `json:"service" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

func (a *AllocateRequest) Bind(_ *http.Request) error {
	return validate.Struct(a)
}

// AddCodesRequest replenishes a catalog with raw codes in input order.
type AddCodesRequest struct {
	Service string   `json:"service" validate:"required"`
	Codes   []string `json:"codes" validate:"required,min=1"`
}

func (a *AddCodesRequest) Bind(_ *http.Request) error {
	return validate.Struct(a)
}

// ResetRequest clears the used state of one catalog, or of every known
// catalog when Service is empty.
type ResetRequest struct {
	Service string `json:"service"`
}

func (rr *ResetRequest) Bind(_ *http.Request) error {
	return nil
}

// AddCodesResult reports which codes of a replenishment batch were appended
// and which were dropped as case-insensitive duplicates.
type AddCodesResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}
