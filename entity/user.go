package entity

import (
	"net/http"
	"time"

	"codepool/lib/validate"
)

// User is an API caller authenticated by token. Admin users may replenish
// and reset catalogs; regular users may only buy and view their own
// transactions.
type User struct {
	Username     string    `json:"username" bson:"username" validate:"required"`
	Name         string    `json:"name" bson:"name" validate:"omitempty"`
	Email        string    `json:"email" bson:"email" validate:"omitempty,email"`
	Token        string    `json:"token" bson:"token" validate:"required,min=1"`
	Admin        bool      `json:"admin" bson:"admin"`
	RegisteredAt time.Time `json:"registered_at" bson:"registered_at"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *User) IsAdmin() bool {
	return u.Admin
}

// Identity is the string recorded as UsedBy on allocated codes. Email is
// preferred so the receipt can be mailed to the same address.
func (u *User) Identity() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Username
}
