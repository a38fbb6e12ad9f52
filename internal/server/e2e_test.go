package server_test

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/heartbridge/heartbridge/internal/api"
	"github.com/heartbridge/heartbridge/internal/auth"
	"github.com/heartbridge/heartbridge/internal/config"
	"github.com/heartbridge/heartbridge/internal/credential"
	"github.com/heartbridge/heartbridge/internal/logging"
	"github.com/heartbridge/heartbridge/internal/onboarding"
	"github.com/heartbridge/heartbridge/internal/profile"
	"github.com/heartbridge/heartbridge/internal/routes"
	"github.com/heartbridge/heartbridge/internal/server"
	"github.com/heartbridge/heartbridge/internal/session"
)

// startBackend serves the development backend on a loopback port.
func startBackend(t *testing.T) string {
	t.Helper()
	cfg := config.Config{AppName: "HeartBridge", AppEnv: "test", JWTSecret: "e2e-secret", TokenTTL: time.Hour, OTPTTL: time.Minute}
	srv, err := server.New(routes.Deps{Cfg: cfg, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(ln)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return "http://" + ln.Addr().String()
}

func TestClientLoginAgainstBackend(t *testing.T) {
	ctx := context.Background()
	baseURL := startBackend(t)
	dir := t.TempDir()

	tokens, err := credential.NewFileStore(filepath.Join(dir, "authToken.cred"), "e2e-credential-secret", credential.DefaultService, credential.DefaultAccount)
	if err != nil {
		t.Fatalf("credential store: %v", err)
	}
	profiles := profile.NewFileStore(filepath.Join(dir, "heartbridge_user_profile.json"))
	client, err := api.NewClient(baseURL, tokens)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	svc := auth.NewService(client)
	sessions := session.NewManager(profiles, tokens, nil)

	state, err := sessions.Bootstrap(ctx)
	if err != nil || state.Screen != session.ScreenRoleSelection {
		t.Fatalf("expected role selection on first launch, got %+v %v", state, err)
	}

	flow := onboarding.NewFlow(svc, tokens)
	steps := []func(){
		func() { flow.SelectRole(profile.RoleParent) },
		func() { flow.SetParentName("Alex") },
		func() { flow.SetChildName("Andy") },
		func() { flow.SetPhone("(555) 123-4567") },
	}
	for _, fill := range steps {
		fill()
		if err := flow.Advance(ctx); err != nil {
			t.Fatalf("advance from %s: %v", flow.Step(), err)
		}
	}
	if flow.Step() != onboarding.StepCode {
		t.Fatalf("expected code step, got %s", flow.Step())
	}

	// A wrong code keeps the flow on the code step with the server's message.
	wrong := "0000"
	if flow.CodeHint() == wrong {
		wrong = "9999"
	}
	flow.SetCode(wrong)
	err = flow.Advance(ctx)
	var srvErr *api.ServerError
	if !errors.As(err, &srvErr) || flow.Message() != "invalid code" || flow.Step() != onboarding.StepCode {
		t.Fatalf("expected invalid code, got %v (%q at %s)", err, flow.Message(), flow.Step())
	}

	flow.SetCode(flow.CodeHint())
	if err := flow.Advance(ctx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	p, ok := flow.Profile()
	if !ok || p.Name != "Andy" || p.ParentName != "Alex" || p.Role != profile.RoleParent || p.Points != 100 || p.SubscriptionTier != profile.TierFree || p.ID == "" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if _, err := sessions.Complete(ctx, p); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// The stored token authorises later calls.
	me, err := svc.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if me.User == nil || me.User.ChildName == nil || *me.User.ChildName != "Andy" {
		t.Fatalf("unexpected server profile %+v", me.User)
	}
	videos, err := svc.Videos(ctx)
	if err != nil || len(videos.Videos) == 0 {
		t.Fatalf("videos: %+v %v", videos, err)
	}

	// A fresh launch restores the session from disk.
	state, err = session.NewManager(profile.NewFileStore(filepath.Join(dir, "heartbridge_user_profile.json")), tokens, nil).Bootstrap(ctx)
	if err != nil || !state.Authenticated || state.Screen != session.ScreenPredictive || state.TokenMissing {
		t.Fatalf("unexpected relaunch state %+v %v", state, err)
	}

	if _, err := sessions.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = svc.Profile(ctx)
	if !errors.As(err, &srvErr) || srvErr.Status != 401 {
		t.Fatalf("expected 401 after logout, got %v", err)
	}
}
