package company

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Company is a tenant. Only its name changes after signup.
type Company struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// User is a login. CompanyID is nil until the user signs up with a company
// or is invited into one.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CompanyID    *uuid.UUID
	Role         access.Role
	CreatedAt    time.Time
}

// Actor is the access identity the user acts as.
func (u *User) Actor() access.Actor {
	a := access.Actor{UserID: u.ID, Role: u.Role}
	if u.CompanyID != nil {
		a.CompanyID = *u.CompanyID
	}

	return a
}

// Invitation is the result of inviting a user. TempPassword is only set when
// a new login was created; delivering it is up to the caller.
type Invitation struct {
	User         *User
	TempPassword string
}
