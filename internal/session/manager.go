// Package session decides what the app shows at launch from locally
// persisted state, and owns logout and in-place profile updates.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartbridge/heartbridge/internal/credential"
	"github.com/heartbridge/heartbridge/internal/logging"
	"github.com/heartbridge/heartbridge/internal/profile"
)

// Screen is the first screen to present.
type Screen string

const (
	ScreenRoleSelection Screen = "role_selection"
	ScreenPredictive    Screen = "predictive"
	ScreenSessions      Screen = "sessions"
)

// State is the outcome of Bootstrap.
type State struct {
	Authenticated bool
	Profile       *profile.UserProfile
	Screen        Screen
	// TokenMissing is set when a profile exists but the credential slot is
	// empty. The session is still considered authenticated; API calls go out
	// without a bearer token until the user logs in again.
	TokenMissing bool
}

// ScreenFor maps a role to its home screen.
func ScreenFor(r profile.Role) Screen {
	if r == profile.RoleExpert {
		return ScreenSessions
	}
	return ScreenPredictive
}

// Manager ties the profile slot to the credential slot.
type Manager struct {
	profiles profile.Store
	tokens   credential.Store
	logger   *slog.Logger
}

// NewManager wires a session manager. A nil logger discards output.
func NewManager(profiles profile.Store, tokens credential.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{profiles: profiles, tokens: tokens, logger: logger}
}

// Bootstrap reads local state only; it never touches the network. An
// unreadable profile is treated as absent.
func (m *Manager) Bootstrap(ctx context.Context) (State, error) {
	p, err := m.profiles.Load(ctx)
	if errors.Is(err, profile.ErrNotFound) {
		return signedOut(), nil
	}
	if err != nil {
		m.logger.Warn("discarding unreadable profile", "error", err)
		return signedOut(), nil
	}

	_, hasToken := m.tokens.Get(ctx)
	if !hasToken {
		m.logger.Warn("profile present without credential", "role", p.Role)
	}
	return State{
		Authenticated: true,
		Profile:       &p,
		Screen:        ScreenFor(p.Role),
		TokenMissing:  !hasToken,
	}, nil
}

// Complete persists the profile produced by a finished login.
func (m *Manager) Complete(ctx context.Context, p profile.UserProfile) (State, error) {
	if err := m.profiles.Save(ctx, p); err != nil {
		return State{}, fmt.Errorf("save profile: %w", err)
	}
	m.logger.Info("session started", "role", p.Role, "user_id", p.ID)
	return State{Authenticated: true, Profile: &p, Screen: ScreenFor(p.Role)}, nil
}

// Logout clears the profile and the token. Both are attempted even if one
// fails.
func (m *Manager) Logout(ctx context.Context) (State, error) {
	var errs []error
	if err := m.profiles.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear profile: %w", err))
	}
	if err := m.tokens.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear token: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Error("logout incomplete", "error", err)
		return signedOut(), err
	}
	m.logger.Info("logged out")
	return signedOut(), nil
}

// AddPoints adjusts the stored balance, never below zero.
func (m *Manager) AddPoints(ctx context.Context, delta int) (profile.UserProfile, error) {
	return m.update(ctx, func(p *profile.UserProfile) error {
		p.AddPoints(delta)
		return nil
	})
}

// SetTier changes the stored subscription tier.
func (m *Manager) SetTier(ctx context.Context, tier string) (profile.UserProfile, error) {
	t, ok := profile.ParseTier(tier)
	if !ok {
		return profile.UserProfile{}, fmt.Errorf("%w: %q", profile.ErrUnknownTier, tier)
	}
	return m.update(ctx, func(p *profile.UserProfile) error {
		p.SubscriptionTier = t
		return nil
	})
}

func (m *Manager) update(ctx context.Context, fn func(*profile.UserProfile) error) (profile.UserProfile, error) {
	p, err := m.profiles.Load(ctx)
	if err != nil {
		return profile.UserProfile{}, err
	}
	if err := fn(&p); err != nil {
		return profile.UserProfile{}, err
	}
	if err := m.profiles.Save(ctx, p); err != nil {
		return profile.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func signedOut() State {
	return State{Screen: ScreenRoleSelection}
}
