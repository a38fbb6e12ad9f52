package profile

import (
	"strconv"

	"github.com/heartbridge/heartbridge/internal/auth"
)

// Fallback carries what the user entered locally during onboarding; it fills
// the gaps the server leaves in its user payload.
type Fallback struct {
	Role       Role
	ParentName string
	ChildName  string
}

// FromAPI normalizes a server user into a UserProfile. Each field resolves in
// a fixed order, taking the first usable value:
//
//	role:             user_type, role, Fallback.Role, parent
//	parentName:       name, Fallback.ParentName
//	name:             child_name, Fallback.ChildName, parentName
//	subscriptionTier: subscription_tier, free
//	points:           points (clamped at 0), Role.DefaultPoints
//
// Unrecognised role and tier strings are skipped like missing ones.
func FromAPI(u auth.User, fb Fallback) UserProfile {
	role := resolveRole(u, fb)
	parentName := firstNonEmpty(deref(u.Name), fb.ParentName)

	p := UserProfile{
		Name:             firstNonEmpty(deref(u.ChildName), fb.ChildName, parentName),
		ParentName:       parentName,
		Role:             role,
		Points:           role.DefaultPoints(),
		SubscriptionTier: TierFree,
		Email:            u.Email,
		Diagnosis:        u.Diagnosis,
		Severity:         u.Severity,
		CurrentTherapies: u.CurrentTherapies,
		Goals:            u.Goals,
		Gender:           u.Gender,
		Age:              u.Age,
	}
	if u.ID != nil {
		p.ID = strconv.FormatInt(*u.ID, 10)
	}
	if u.SubscriptionTier != nil {
		if tier, ok := ParseTier(*u.SubscriptionTier); ok {
			p.SubscriptionTier = tier
		}
	}
	if u.Points != nil {
		p.Points = 0
		p.AddPoints(*u.Points)
	}
	return p
}

func resolveRole(u auth.User, fb Fallback) Role {
	for _, candidate := range []string{deref(u.UserType), deref(u.Role), string(fb.Role)} {
		if role, ok := ParseRole(candidate); ok {
			return role
		}
	}
	return RoleParent
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
