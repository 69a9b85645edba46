package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User is the minimal identity the checkout and notification flows consume.
// Account management itself lives outside this service.
type User struct {
	ID    string
	Email string
	Name  string
}

// Repository provides user lookups.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
