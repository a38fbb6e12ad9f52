package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/heartbridge/heartbridge/internal/notification"
)

const codeLength = 4

// Options tunes the login service.
type Options struct {
	CodeTTL time.Duration
	// EchoCodes returns the code in the start-login response. Development only.
	EchoCodes bool
}

// Service manages the phone/OTP login lifecycle.
type Service struct {
	repo     Repository
	codes    CodeStore
	tokens   *Tokens
	notifier notification.Notifier
	opts     Options
	generate func() (string, error)
}

// NewService creates a new identity service.
func NewService(repo Repository, codes CodeStore, tokens *Tokens, notifier notification.Notifier, opts Options) *Service {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 10 * time.Minute
	}
	return &Service{repo: repo, codes: codes, tokens: tokens, notifier: notifier, opts: opts, generate: randomCode}
}

// StartLogin issues a code for reg.Phone and sends it through the notifier.
// The returned code is empty unless EchoCodes is set.
func (s *Service) StartLogin(ctx context.Context, reg Registration) (string, error) {
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Name = strings.TrimSpace(reg.Name)
	if reg.Phone == "" || reg.Name == "" {
		return "", fmt.Errorf("%w: phone and name are required", ErrInvalidInput)
	}
	if reg.UserType != userTypeParent && reg.UserType != userTypeExpert {
		return "", fmt.Errorf("%w: user_type must be parent or expert", ErrInvalidInput)
	}
	if reg.UserType == userTypeExpert {
		reg.ChildName = ""
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if err := s.codes.Put(ctx, reg.Phone, Pending{Registration: reg, CodeHash: hash}, s.opts.CodeTTL); err != nil {
		return "", err
	}
	if s.notifier != nil {
		msg := notification.Message{
			Kind:        notification.KindVerificationCode,
			Destination: reg.Phone,
			Body:        fmt.Sprintf("Your HeartBridge code is %s", code),
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			return "", fmt.Errorf("send code: %w", err)
		}
	}
	if s.opts.EchoCodes {
		return code, nil
	}
	return "", nil
}

// Verify checks the code, creates or refreshes the user and issues a token.
// A code can be used once.
func (s *Service) Verify(ctx context.Context, phone, code string) (User, string, error) {
	phone = strings.TrimSpace(phone)
	pending, err := s.codes.Get(ctx, phone)
	if err != nil {
		return User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword(pending.CodeHash, []byte(code)); err != nil {
		return User{}, "", ErrInvalidCode
	}
	if err := s.codes.Delete(ctx, phone); err != nil {
		return User{}, "", err
	}

	user, err := s.repo.Upsert(ctx, pending.Registration)
	if err != nil {
		return User{}, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Login issues a token for an existing phone without a code.
func (s *Service) Login(ctx context.Context, phone string) (User, string, error) {
	user, err := s.repo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return User{}, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Profile loads the user a verified token belongs to.
func (s *Service) Profile(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(token string) (int64, error) {
	if s.tokens == nil {
		return 0, errors.New("token issuer not configured")
	}
	return s.tokens.Verify(token)
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}
