package profile

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/heartbridge/heartbridge/internal/auth"
	"github.com/heartbridge/heartbridge/internal/wire"
)

func str(s string) *string { return &s }

func TestFromAPIFallsBackWhenServerOmitsFields(t *testing.T) {
	for _, role := range []Role{RoleParent, RoleExpert} {
		p := FromAPI(auth.User{Name: str("Alex")}, Fallback{Role: role, ParentName: "Alex"})
		if p.Role != role {
			t.Fatalf("expected role %s, got %s", role, p.Role)
		}
		if p.SubscriptionTier != TierFree {
			t.Fatalf("expected free tier, got %s", p.SubscriptionTier)
		}
		if p.Points != role.DefaultPoints() {
			t.Fatalf("expected %d points for %s, got %d", role.DefaultPoints(), role, p.Points)
		}
	}
}

func TestFromAPIRolePrecedence(t *testing.T) {
	cases := []struct {
		name string
		user auth.User
		fb   Role
		want Role
	}{
		{"user_type wins", auth.User{UserType: str("expert"), Role: str("parent")}, RoleParent, RoleExpert},
		{"role next", auth.User{Role: str("expert")}, RoleParent, RoleExpert},
		{"local selection next", auth.User{}, RoleExpert, RoleExpert},
		{"unknown server value skipped", auth.User{UserType: str("admin")}, RoleExpert, RoleExpert},
		{"default parent", auth.User{}, "", RoleParent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromAPI(tc.user, Fallback{Role: tc.fb}).Role; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestFromAPINamesAndServerValues(t *testing.T) {
	id := int64(42)
	points := 250
	p := FromAPI(auth.User{
		ID:               &id,
		Name:             str("Alex"),
		UserType:         str("parent"),
		SubscriptionTier: str("premium"),
		Points:           &points,
		Goals:            []string{"Emotional Regulation"},
	}, Fallback{Role: RoleParent, ParentName: "Local", ChildName: "Andy"})

	if p.ID != "42" || p.ParentName != "Alex" || p.Name != "Andy" {
		t.Fatalf("unexpected identity %+v", p)
	}
	if p.SubscriptionTier != TierPremium || p.Points != 250 {
		t.Fatalf("unexpected tier/points %+v", p)
	}
	if len(p.Goals) != 1 {
		t.Fatalf("goals not copied: %+v", p)
	}

	expert := FromAPI(auth.User{UserType: str("expert")}, Fallback{ParentName: "Dr. Kim"})
	if expert.Name != "Dr. Kim" {
		t.Fatalf("expected name to fall back to display name, got %q", expert.Name)
	}

	negative := -5
	if p := FromAPI(auth.User{Points: &negative, SubscriptionTier: str("gold")}, Fallback{}); p.Points != 0 || p.SubscriptionTier != TierFree {
		t.Fatalf("expected clamped points and free tier, got %+v", p)
	}
}

// Every combination of optional fields survives the wire codec unchanged.
func TestWireRoundTripAllOptionalCombinations(t *testing.T) {
	setters := []func(*UserProfile){
		func(p *UserProfile) { p.ID = "7" },
		func(p *UserProfile) { p.Email = str("alex@example.com") },
		func(p *UserProfile) { p.Diagnosis = []string{"ASD (Autism)"} },
		func(p *UserProfile) { p.Severity = str("Moderate") },
		func(p *UserProfile) { p.CurrentTherapies = []string{"ABA", "Speech"} },
		func(p *UserProfile) { p.Goals = []string{"Emotional Regulation"} },
		func(p *UserProfile) { p.Gender = str("Boy") },
		func(p *UserProfile) { p.Age = str("6") },
	}
	for mask := 0; mask < 1<<len(setters); mask++ {
		in := UserProfile{Name: "Andy", ParentName: "Alex", Role: RoleParent, Points: 100, SubscriptionTier: TierFree}
		for i, set := range setters {
			if mask&(1<<i) != 0 {
				set(&in)
			}
		}
		data, err := wire.Marshal(in)
		if err != nil {
			t.Fatalf("mask %d: marshal: %v", mask, err)
		}
		var out UserProfile
		if err := wire.Unmarshal(data, &out); err != nil {
			t.Fatalf("mask %d: unmarshal: %v", mask, err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("mask %d: round trip mismatch\n in: %+v\nout: %+v\nwire: %s", mask, in, out, data)
		}
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "heartbridge_user_profile.json"))

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	want := UserProfile{Name: "Andy", ParentName: "Alex", Role: RoleParent, Points: 100, SubscriptionTier: TierFree, Severity: str("Moderate")}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestAddPointsNeverNegative(t *testing.T) {
	p := UserProfile{Points: 10}
	p.AddPoints(-25)
	if p.Points != 0 {
		t.Fatalf("expected 0, got %d", p.Points)
	}
	p.AddPoints(15)
	if p.Points != 15 {
		t.Fatalf("expected 15, got %d", p.Points)
	}
}

func TestAddPointsSaturates(t *testing.T) {
	p := UserProfile{Points: 120}
	p.AddPoints(math.MaxInt)
	if p.Points != math.MaxInt {
		t.Fatalf("expected saturation at MaxInt, got %d", p.Points)
	}
	p.AddPoints(1)
	if p.Points != math.MaxInt {
		t.Fatalf("expected MaxInt to hold, got %d", p.Points)
	}
	p.AddPoints(math.MinInt)
	if p.Points != 0 {
		t.Fatalf("expected 0 after MinInt, got %d", p.Points)
	}
}
