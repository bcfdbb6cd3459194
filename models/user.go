package models

import (
	"time"
)

// Role represents a user's access level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// FraudStatus represents a user's standing with the fraud gate
type FraudStatus string

const (
	FraudStatusClean       FraudStatus = "clean"
	FraudStatusFlagged     FraudStatus = "flagged"
	FraudStatusBanned      FraudStatus = "banned"
	FraudStatusWhitelisted FraudStatus = "whitelisted"
)

// User represents a platform user
type User struct {
	ID          int64       `db:"id"`
	Username    string      `db:"username"`
	Role        Role        `db:"role"`
	FraudStatus FraudStatus `db:"fraud_status"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

// IsAdmin checks if the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanEarn checks if the user is allowed to receive reward credits
func (u *User) CanEarn() bool {
	return u.FraudStatus != FraudStatusBanned
}

// CanWithdraw checks if the user is allowed to request a withdrawal.
// Flagged users keep earning but are held back from cashing out until
// an admin clears or bans them.
func (u *User) CanWithdraw() bool {
	return u.FraudStatus == FraudStatusClean || u.FraudStatus == FraudStatusWhitelisted
}
