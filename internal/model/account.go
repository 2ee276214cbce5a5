package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) String() string { return string(r) }

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

func (s AccountStatus) String() string { return string(s) }

func (s AccountStatus) Valid() bool { return s == AccountActive || s == AccountInactive }

// Account is a panel login holding an SMS credit balance.
type Account struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	APIKey       string        `json:"-"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	Credits      int64         `json:"credits"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Identity is the request-scoped caller resolved by the auth layer.
type Identity struct {
	AccountID int64
	Role      Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
