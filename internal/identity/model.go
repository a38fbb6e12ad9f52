package identity

import (
	"errors"
	"time"
)

// User is an account on the development backend.
type User struct {
	ID               int64
	Phone            string
	Name             string
	UserType         string
	ChildName        string
	SubscriptionTier string
	Points           int
	Email            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Registration is what start-login collects before the phone is verified.
type Registration struct {
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	UserType  string `json:"user_type"`
	ChildName string `json:"child_name,omitempty"`
}

const (
	userTypeParent = "parent"
	userTypeExpert = "expert"
	defaultTier    = "free"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidCode  = errors.New("invalid code")
	ErrInvalidInput = errors.New("invalid input")
)

// startingPoints mirrors the client's defaults for a new account.
func startingPoints(userType string) int {
	if userType == userTypeParent {
		return 100
	}
	return 0
}
