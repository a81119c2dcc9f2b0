package auth

import (
	"fmt"

	"codepool/entity"
)

type Database interface {
	GetUser(token string) (*entity.User, error)
}

// Auth resolves API tokens to users. The core trusts the resulting identity
// unconditionally; authorization beyond token lookup lives at the boundary.
type Auth struct {
	db Database
}

func New(db Database) *Auth {
	return &Auth{db: db}
}

func (a Auth) UserByToken(token string) (*entity.User, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	return a.db.GetUser(token)
}
