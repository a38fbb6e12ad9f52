package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the login and profile endpoints. Bodies are snake_case.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type startLoginRequest struct {
	UserType  string `json:"user_type"`
	Name      string `json:"name"`
	ChildName string `json:"child_name"`
	Phone     string `json:"phone"`
}

type startLoginResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type loginRequest struct {
	Phone string `json:"phone"`
}

type tokenResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type userResponse struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	UserType         string  `json:"user_type"`
	ChildName        *string `json:"child_name,omitempty"`
	Phone            string  `json:"phone"`
	SubscriptionTier string  `json:"subscription_tier"`
	Points           int     `json:"points"`
	Email            *string `json:"email,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toUserResponse(u User) userResponse {
	out := userResponse{
		ID:               u.ID,
		Name:             u.Name,
		UserType:         u.UserType,
		Phone:            u.Phone,
		SubscriptionTier: u.SubscriptionTier,
		Points:           u.Points,
		CreatedAt:        u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        u.UpdatedAt.Format(time.RFC3339),
	}
	if u.ChildName != "" {
		out.ChildName = &u.ChildName
	}
	if u.Email != "" {
		out.Email = &u.Email
	}
	return out
}

// StartLogin handles POST /api/auth/start-login.
func (h *Handler) StartLogin(c *fiber.Ctx) error {
	var req startLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid body")
	}
	code, err := h.service.StartLogin(c.UserContext(), Registration{Phone: req.Phone, Name: req.Name, UserType: req.UserType, ChildName: req.ChildName})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(startLoginResponse{Message: "Verification code sent", Code: code})
}

// VerifyCode handles POST /api/auth/verify-code.
func (h *Handler) VerifyCode(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid body")
	}
	user, token, err := h.service.Verify(c.UserContext(), req.Phone, req.Code)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(tokenResponse{Message: "Login successful", Token: token, User: toUserResponse(user)})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid body")
	}
	user, token, err := h.service.Login(c.UserContext(), req.Phone)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(tokenResponse{Message: "Login successful", Token: token, User: toUserResponse(user)})
}

// Profile handles GET /api/profile. It expects the bearer middleware to
// have stored the user id under LocalUserID.
func (h *Handler) Profile(c *fiber.Ctx) error {
	id, ok := c.Locals(LocalUserID).(int64)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	user, err := h.service.Profile(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"user": toUserResponse(user)})
}

// LocalUserID is the fiber.Ctx locals key for the authenticated user id.
const LocalUserID = "user_id"

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCode):
		return fiber.NewError(http.StatusUnauthorized, ErrInvalidCode.Error())
	case errors.Is(err, ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, ErrUserNotFound.Error())
	default:
		return err
	}
}
