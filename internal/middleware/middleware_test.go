package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/heartbridge/heartbridge/internal/logging"
)

func jsonErrors(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func setupRateLimitedApp(t *testing.T) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New(fiber.Config{ErrorHandler: jsonErrors})
	app.Post("/start", StartLoginRateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app, func() {
		cache.Close()
		mr.Close()
	}
}

func postPhone(t *testing.T, app *fiber.App, phone string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/start", strings.NewReader(`{"phone":"`+phone+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestStartLoginRateLimit(t *testing.T) {
	app, cleanup := setupRateLimitedApp(t)
	defer cleanup()

	for i := 0; i < 2; i++ {
		if status := postPhone(t, app, "5551234567"); status != fiber.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, status)
		}
	}
	if status := postPhone(t, app, "5551234567"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected %d got %d", fiber.StatusTooManyRequests, status)
	}
	if status := postPhone(t, app, "5550001111"); status != fiber.StatusOK {
		t.Fatalf("other phones are unaffected, got %d", status)
	}
}

func TestStartLoginRateLimitWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/start", StartLoginRateLimit(nil, 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	for i := 0; i < 3; i++ {
		if status := postPhone(t, app, "5551234567"); status != fiber.StatusOK {
			t.Fatalf("expected pass-through, got %d", status)
		}
	}
}

type staticVerifier map[string]int64

func (v staticVerifier) Authenticate(token string) (int64, error) {
	id, ok := v[token]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return id, nil
}

func TestBearerAuth(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New(fiber.Config{ErrorHandler: jsonErrors})
	app.Use(RequestID())
	app.Use(Audit(logging.NewWithWriter(&logs, "info")))
	app.Get("/me", BearerAuth(staticVerifier{"good": 42}), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": c.Locals(LocalUserID)})
	})

	cases := []struct {
		header string
		status int
		errMsg string
	}{
		{"", fiber.StatusUnauthorized, "missing bearer token"},
		{"Basic abc", fiber.StatusUnauthorized, "missing bearer token"},
		{"Bearer bad", fiber.StatusUnauthorized, "invalid token"},
		{"Bearer good", fiber.StatusOK, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set(fiber.HeaderAuthorization, tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%q: expected %d got %d (%s)", tc.header, tc.status, resp.StatusCode, body)
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Fatalf("expected a request id header")
		}
		if tc.errMsg != "" {
			var payload map[string]string
			if err := json.Unmarshal(body, &payload); err != nil || payload["error"] != tc.errMsg {
				t.Fatalf("%q: expected error %q, got %s", tc.header, tc.errMsg, body)
			}
		}
	}

	var last map[string]any
	lines := bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n"))
	if err := json.Unmarshal(lines[len(lines)-1], &last); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if last["msg"] != "request completed" || last["user_id"] != float64(42) || last["status"] != float64(200) {
		t.Fatalf("unexpected audit line %v", last)
	}
	if last["level"] != slog.LevelInfo.String() {
		t.Fatalf("expected info level, got %v", last["level"])
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "req-1" || resp.Header.Get(RequestIDHeader) != "req-1" {
		t.Fatalf("expected echoed id, got %q / %q", body, resp.Header.Get(RequestIDHeader))
	}
}
