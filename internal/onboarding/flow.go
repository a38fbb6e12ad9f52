// Package onboarding drives the phone/OTP login: role selection, profile
// fields, phone entry and code verification.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/heartbridge/heartbridge/internal/api"
	"github.com/heartbridge/heartbridge/internal/auth"
	"github.com/heartbridge/heartbridge/internal/credential"
	"github.com/heartbridge/heartbridge/internal/logging"
	"github.com/heartbridge/heartbridge/internal/profile"
)

// Step is a position in the login flow.
type Step int

const (
	StepRole Step = iota
	StepName
	StepChildName
	StepPhone
	StepCode
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepRole:
		return "role"
	case StepName:
		return "name"
	case StepChildName:
		return "child_name"
	case StepPhone:
		return "phone"
	case StepCode:
		return "code"
	case StepComplete:
		return "complete"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// DefaultResendCooldown spaces out repeated start-login calls for one phone.
const DefaultResendCooldown = 30 * time.Second

var (
	// ErrInvalidStep is returned when the current step's input is incomplete
	// or the step has no forward/backward transition.
	ErrInvalidStep = errors.New("onboarding: step is not complete")
	// ErrBusy is returned while a network transition is in flight.
	ErrBusy = errors.New("onboarding: request already in progress")
	// ErrNoRole is returned when selecting something other than parent or expert.
	ErrNoRole = errors.New("onboarding: unknown role")
)

// CooldownError reports how long to wait before another code can be sent.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("Please wait %d seconds before requesting a new code.", int((e.Remaining+time.Second-1)/time.Second))
}

// Authenticator is the subset of auth.Service the flow calls.
type Authenticator interface {
	StartLogin(ctx context.Context, req auth.StartLoginRequest) (auth.StartLoginResponse, error)
	VerifyCode(ctx context.Context, req auth.VerifyCodeRequest) (auth.VerifyCodeResponse, error)
}

// Flow is one run of the login state machine. It is safe for concurrent use;
// at most one network transition runs at a time.
type Flow struct {
	auth     Authenticator
	tokens   credential.Store
	logger   *slog.Logger
	now      func() time.Time
	cooldown time.Duration

	mu     sync.Mutex
	step   Step
	draft  Draft
	busy   bool
	err    error
	sentAt time.Time
	hint   string
	result *profile.UserProfile
}

// Option customises a Flow.
type Option func(*Flow)

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithResendCooldown overrides DefaultResendCooldown. Zero disables it.
func WithResendCooldown(d time.Duration) Option {
	return func(f *Flow) { f.cooldown = d }
}

// NewFlow starts a flow at StepRole.
func NewFlow(a Authenticator, tokens credential.Store, opts ...Option) *Flow {
	f := &Flow{
		auth:     a,
		tokens:   tokens,
		logger:   logging.Discard(),
		now:      time.Now,
		cooldown: DefaultResendCooldown,
		step:     StepRole,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Draft returns a copy of the entered values.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Busy reports whether a network transition is in flight.
func (f *Flow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Err is the last failure, cleared when the user moves on or back.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Message is Err rendered for display; empty when there is no error.
func (f *Flow) Message() string {
	return api.Message(f.Err())
}

// CodeHint is the code a development backend echoed back, if any.
func (f *Flow) CodeHint() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hint
}

// Profile is the normalized profile once the flow reaches StepComplete.
func (f *Flow) Profile() (profile.UserProfile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == nil {
		return profile.UserProfile{}, false
	}
	return *f.result, true
}

// SelectRole records the role. Only allowed on StepRole.
func (f *Flow) SelectRole(r profile.Role) error {
	if _, ok := profile.ParseRole(string(r)); !ok {
		return ErrNoRole
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepRole {
		return ErrInvalidStep
	}
	f.draft.Role = r
	return nil
}

// SetParentName records the display name.
func (f *Flow) SetParentName(name string) {
	f.mu.Lock()
	f.draft.ParentName = name
	f.mu.Unlock()
}

// SetChildName records the child's name.
func (f *Flow) SetChildName(name string) {
	f.mu.Lock()
	f.draft.ChildName = name
	f.mu.Unlock()
}

// SetPhone keeps the digits of s, at most ten.
func (f *Flow) SetPhone(s string) {
	f.mu.Lock()
	f.draft.Phone = digitsOnly(s, phoneDigits)
	f.mu.Unlock()
}

// SetCode keeps the digits of s, at most four.
func (f *Flow) SetCode(s string) {
	f.mu.Lock()
	f.draft.Code = digitsOnly(s, codeDigits)
	f.mu.Unlock()
}

// CanAdvance reports whether the current step's input is complete.
func (f *Flow) CanAdvance() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.busy && f.valid()
}

func (f *Flow) valid() bool {
	switch f.step {
	case StepRole:
		return f.draft.Role != ""
	case StepName:
		return validName(f.draft.ParentName)
	case StepChildName:
		return validName(f.draft.ChildName)
	case StepPhone:
		return len(f.draft.Phone) >= phoneDigits
	case StepCode:
		return len(f.draft.Code) == codeDigits
	default:
		return false
	}
}

// Advance moves to the next step. On StepPhone it requests a code and on
// StepCode it verifies it, stores the token and builds the profile; both
// stay put on failure with the error exposed through Err.
func (f *Flow) Advance(ctx context.Context) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	if !f.valid() {
		f.mu.Unlock()
		return ErrInvalidStep
	}
	f.err = nil

	switch f.step {
	case StepRole:
		f.step = StepName
	case StepName:
		if f.draft.Role == profile.RoleParent {
			f.step = StepChildName
		} else {
			f.step = StepPhone
		}
	case StepChildName:
		f.step = StepPhone
	case StepPhone:
		return f.sendCode(ctx, StepCode)
	case StepCode:
		return f.verify(ctx)
	}
	f.mu.Unlock()
	return nil
}

// Back returns to the previous step. Not available on StepRole, StepComplete
// or while a request is in flight.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	switch f.step {
	case StepName:
		f.step = StepRole
	case StepChildName:
		f.step = StepName
	case StepPhone:
		if f.draft.Role == profile.RoleParent {
			f.step = StepChildName
		} else {
			f.step = StepName
		}
	case StepCode:
		f.step = StepPhone
	default:
		return ErrInvalidStep
	}
	f.err = nil
	return nil
}

// ResendCode asks for a new code from StepCode, no sooner than the resend
// cooldown after the previous request.
func (f *Flow) ResendCode(ctx context.Context) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.step != StepCode {
		f.mu.Unlock()
		return ErrInvalidStep
	}
	if wait := f.sentAt.Add(f.cooldown).Sub(f.now()); wait > 0 {
		f.mu.Unlock()
		return &CooldownError{Remaining: wait}
	}
	f.err = nil
	return f.sendCode(ctx, StepCode)
}

// sendCode is entered with f.mu held and releases it.
func (f *Flow) sendCode(ctx context.Context, next Step) error {
	req := auth.StartLoginRequest{
		UserType: string(f.draft.Role),
		Name:     f.draft.ParentName,
		Phone:    f.draft.Phone,
	}
	if f.draft.Role == profile.RoleParent {
		child := f.draft.ChildName
		req.ChildName = &child
	}
	f.busy = true
	f.mu.Unlock()

	resp, err := f.auth.StartLogin(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		f.err = err
		f.logger.Warn("start login failed", "phone", maskPhone(req.Phone), "error", err)
		return err
	}
	f.sentAt = f.now()
	f.hint = ""
	if resp.Code != nil {
		f.hint = *resp.Code
	}
	f.step = next
	f.logger.Info("verification code requested", "phone", maskPhone(req.Phone), "role", req.UserType)
	return nil
}

// verify is entered with f.mu held and releases it.
func (f *Flow) verify(ctx context.Context) error {
	req := auth.VerifyCodeRequest{Phone: f.draft.Phone, Code: f.draft.Code}
	fb := profile.Fallback{Role: f.draft.Role, ParentName: f.draft.ParentName, ChildName: f.draft.ChildName}
	f.busy = true
	f.mu.Unlock()

	resp, err := f.auth.VerifyCode(ctx, req)
	if err == nil && (resp.Token == "" || resp.User == nil) {
		err = &api.DecodingError{Message: "verify-code reply has no token or user"}
	}
	if err == nil {
		err = f.tokens.Save(ctx, resp.Token)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		f.err = err
		f.logger.Warn("verify code failed", "phone", maskPhone(req.Phone), "error", err)
		return err
	}
	p := profile.FromAPI(*resp.User, fb)
	f.result = &p
	f.step = StepComplete
	f.logger.Info("login complete", "role", p.Role, "user_id", p.ID)
	return nil
}

func maskPhone(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return "******" + digits[len(digits)-4:]
}
