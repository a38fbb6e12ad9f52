package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/heartbridge/heartbridge/internal/api"
	"github.com/heartbridge/heartbridge/internal/auth"
	"github.com/heartbridge/heartbridge/internal/config"
	"github.com/heartbridge/heartbridge/internal/credential"
	"github.com/heartbridge/heartbridge/internal/onboarding"
	"github.com/heartbridge/heartbridge/internal/profile"
	"github.com/heartbridge/heartbridge/internal/session"
)

type app struct {
	cfg      config.Config
	logger   *slog.Logger
	tokens   credential.Store
	auth     *auth.Service
	sessions *session.Manager
	in       io.Reader
	out      io.Writer
}

var errUsage = errors.New("unknown command")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "status":
		return a.status(ctx)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "profile":
		return a.remoteProfile(ctx)
	case "videos":
		return a.videos(ctx)
	case "points":
		return a.points(ctx, args)
	case "tier":
		return a.tier(ctx, args)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w %q", errUsage, cmd)
	}
}

func (a *app) status(ctx context.Context) error {
	state, err := a.sessions.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if !state.Authenticated {
		fmt.Fprintln(a.out, "Not signed in. Run `heartbridge login`.")
		return nil
	}
	printProfile(a.out, *state.Profile)
	fmt.Fprintf(a.out, "Home screen: %s\n", state.Screen)
	if state.TokenMissing {
		fmt.Fprintln(a.out, "Warning: no stored token; sign in again to call the server.")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	role := fs.String("role", "", "parent or expert")
	name := fs.String("name", "", "your name")
	child := fs.String("child", "", "child's name (parents)")
	phone := fs.String("phone", "", "10-digit phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := &prompter{r: bufio.NewReader(a.in), w: a.out}
	flow := onboarding.NewFlow(a.auth, a.tokens,
		onboarding.WithLogger(a.logger),
		onboarding.WithResendCooldown(a.cfg.ResendCooldown),
	)

	for flow.Step() != onboarding.StepComplete {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch flow.Step() {
		case onboarding.StepRole:
			value, err := p.valueOr(*role, "Are you a parent or an expert? ")
			if err != nil {
				return err
			}
			*role = ""
			if err := flow.SelectRole(profile.Role(strings.ToLower(value))); err != nil {
				fmt.Fprintln(a.out, "Please answer parent or expert.")
				continue
			}
		case onboarding.StepName:
			value, err := p.valueOr(*name, "Your name: ")
			if err != nil {
				return err
			}
			*name = ""
			flow.SetParentName(value)
		case onboarding.StepChildName:
			value, err := p.valueOr(*child, "Your child's name: ")
			if err != nil {
				return err
			}
			*child = ""
			flow.SetChildName(value)
		case onboarding.StepPhone:
			value, err := p.valueOr(*phone, "Phone number: ")
			if err != nil {
				return err
			}
			*phone = ""
			flow.SetPhone(value)
			fmt.Fprintf(a.out, "Sending a code to %s...\n", flow.Draft().FormattedPhone())
		case onboarding.StepCode:
			if hint := flow.CodeHint(); hint != "" {
				fmt.Fprintf(a.out, "(development code: %s)\n", hint)
			}
			value, err := p.ask("Verification code (or \"resend\", \"back\"): ")
			if err != nil {
				return err
			}
			switch strings.ToLower(value) {
			case "resend":
				if err := flow.ResendCode(ctx); err != nil {
					fmt.Fprintln(a.out, errorText(err))
				} else {
					fmt.Fprintln(a.out, "A new code is on its way.")
				}
				continue
			case "back":
				if err := flow.Back(); err != nil {
					fmt.Fprintln(a.out, errorText(err))
				}
				continue
			}
			flow.SetCode(value)
		}

		if err := flow.Advance(ctx); err != nil {
			fmt.Fprintln(a.out, errorText(err))
		}
	}

	result, _ := flow.Profile()
	if _, err := a.sessions.Complete(ctx, result); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed in.")
	printProfile(a.out, result)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if _, err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) remoteProfile(ctx context.Context) error {
	resp, err := a.auth.Profile(ctx)
	if err != nil {
		return err
	}
	if resp.User == nil {
		fmt.Fprintln(a.out, "The server returned no account.")
		return nil
	}
	state, _ := a.sessions.Bootstrap(ctx)
	fb := profile.Fallback{}
	if state.Profile != nil {
		fb = profile.Fallback{Role: state.Profile.Role, ParentName: state.Profile.ParentName, ChildName: state.Profile.Name}
	}
	printProfile(a.out, profile.FromAPI(*resp.User, fb))
	return nil
}

func (a *app) videos(ctx context.Context) error {
	resp, err := a.auth.Videos(ctx)
	if err != nil {
		return err
	}
	if len(resp.Videos) == 0 {
		fmt.Fprintln(a.out, "No videos yet.")
		return nil
	}
	for _, v := range resp.Videos {
		title, url := "(untitled)", ""
		if v.Title != nil {
			title = *v.Title
		}
		if v.URL != nil {
			url = *v.URL
		}
		fmt.Fprintf(a.out, "- %s %s\n", title, url)
	}
	return nil
}

func (a *app) points(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("points", flag.ContinueOnError)
	fs.SetOutput(a.out)
	delta := fs.Int("delta", 0, "points to add (negative to spend)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.sessions.AddPoints(ctx, *delta)
	if err != nil {
		return notSignedIn(err)
	}
	fmt.Fprintf(a.out, "Points: %d\n", p.Points)
	return nil
}

func (a *app) tier(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tier", flag.ContinueOnError)
	fs.SetOutput(a.out)
	set := fs.String("set", "", "free, core, plus, premium, individual or bundle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.sessions.SetTier(ctx, strings.ToLower(*set))
	if err != nil {
		return notSignedIn(err)
	}
	fmt.Fprintf(a.out, "Subscription: %s\n", p.SubscriptionTier)
	return nil
}

func notSignedIn(err error) error {
	if errors.Is(err, profile.ErrNotFound) {
		return errors.New("not signed in")
	}
	return err
}

func errorText(err error) string {
	switch {
	case errors.Is(err, onboarding.ErrInvalidStep):
		return "That doesn't look complete yet."
	case errors.Is(err, onboarding.ErrBusy):
		return "Still working on the previous request."
	default:
		var cd *onboarding.CooldownError
		if errors.As(err, &cd) {
			return cd.Error()
		}
		return api.Message(err)
	}
}

func printProfile(w io.Writer, p profile.UserProfile) {
	if p.Role == profile.RoleParent && p.Name != p.ParentName {
		fmt.Fprintf(w, "%s (parent of %s)\n", p.ParentName, p.Name)
	} else {
		fmt.Fprintf(w, "%s (%s)\n", p.ParentName, p.Role)
	}
	fmt.Fprintf(w, "Subscription: %s, points: %d\n", p.SubscriptionTier, p.Points)
}

type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.w, question)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// valueOr uses preset when a flag supplied it, otherwise prompts.
func (p *prompter) valueOr(preset, question string) (string, error) {
	if preset != "" {
		return preset, nil
	}
	return p.ask(question)
}
