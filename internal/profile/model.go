// Package profile holds the caregiver/clinician identity the app persists
// locally after login, and the rules for deriving it from a server user.
package profile

import (
	"errors"
	"math"
)

// Role is who uses the app.
type Role string

const (
	RoleParent Role = "parent"
	RoleExpert Role = "expert"
)

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleParent, RoleExpert:
		return Role(s), true
	default:
		return "", false
	}
}

// DefaultPoints is the starting balance for a new profile of the role.
func (r Role) DefaultPoints() int {
	if r == RoleParent {
		return 100
	}
	return 0
}

// Tier is the subscription level gating non-core features.
type Tier string

const (
	TierFree       Tier = "free"
	TierCore       Tier = "core"
	TierPlus       Tier = "plus"
	TierPremium    Tier = "premium"
	TierIndividual Tier = "individual"
	TierBundle     Tier = "bundle"
)

// ParseTier reports whether s names a known tier.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierFree, TierCore, TierPlus, TierPremium, TierIndividual, TierBundle:
		return Tier(s), true
	default:
		return "", false
	}
}

var (
	// ErrNotFound is returned when no profile has been persisted.
	ErrNotFound = errors.New("profile not found")
	// ErrUnknownTier rejects subscription changes to a tier that does not exist.
	ErrUnknownTier = errors.New("unknown subscription tier")
)

// UserProfile is the authenticated identity and caregiving context.
// Name is the child's name for parents and the display name otherwise;
// ParentName is always the display name.
type UserProfile struct {
	ID               string   `json:"id,omitempty"`
	Name             string   `json:"name"`
	ParentName       string   `json:"parentName"`
	Role             Role     `json:"role"`
	Points           int      `json:"points"`
	SubscriptionTier Tier     `json:"subscriptionTier"`
	Email            *string  `json:"email,omitempty"`
	Diagnosis        []string `json:"diagnosis,omitempty"`
	Severity         *string  `json:"severity,omitempty"`
	CurrentTherapies []string `json:"currentTherapies,omitempty"`
	Goals            []string `json:"goals,omitempty"`
	Gender           *string  `json:"gender,omitempty"`
	Age              *string  `json:"age,omitempty"`
}

// IsExpert is a convenience for screen selection.
func (p UserProfile) IsExpert() bool {
	return p.Role == RoleExpert
}

// AddPoints adjusts the balance, never going below zero and saturating at
// math.MaxInt.
func (p *UserProfile) AddPoints(delta int) {
	if p.Points < 0 {
		p.Points = 0
	}
	switch {
	case delta > 0 && delta > math.MaxInt-p.Points:
		p.Points = math.MaxInt
	case delta < 0 && -(delta+1) >= p.Points:
		p.Points = 0
	default:
		p.Points += delta
	}
}
