package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

var (
	ErrUnknownScreen = errors.New("unknown screen")
	ErrValidation    = errors.New("validation failed")
)

const tokenKey = "access_token"

// Controller owns the application session and is the only thing allowed to
// mutate it.
type Controller struct {
	auth   ports.AuthService
	tokens ports.TokenSetter
	prefs  ports.PreferenceStore
	events ports.EventSink
	log    *slog.Logger

	mu      sync.Mutex
	session domain.AppSession
	onLeave map[domain.Screen][]func()
}

func NewController(
	auth ports.AuthService,
	tokens ports.TokenSetter,
	prefs ports.PreferenceStore,
	events ports.EventSink,
	log *slog.Logger,
) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		auth:    auth,
		tokens:  tokens,
		prefs:   prefs,
		events:  events,
		log:     log.With("component", "navigation"),
		onLeave: make(map[domain.Screen][]func()),
	}
	c.session = newSession()
	return c
}

func newSession() domain.AppSession {
	s := domain.AppSession{CurrentScreen: domain.ScreenSplash, NavHistory: []domain.Screen{}}
	s.View = Render(s)
	return s
}

// Restore loads the profile for a persisted token. Any failure lands on the
// login screen with the token cleared; no retry is attempted.
func (c *Controller) Restore(ctx context.Context) domain.AppSession {
	token, ok := c.prefs.Get(tokenKey)
	if !ok || strings.TrimSpace(token) == "" {
		return c.Snapshot()
	}

	c.mutate(func(s *domain.AppSession) { s.IsLoading = true })

	profile, err := c.auth.Profile(ctx, token)
	if err != nil {
		c.log.Warn("session restore failed", "err", err)
		c.clearToken()
		return c.mutate(func(s *domain.AppSession) {
			*s = newSession()
			s.CurrentScreen = domain.ScreenLogin
		})
	}

	c.tokens.SetToken(token)
	return c.mutate(func(s *domain.AppSession) {
		signIn(s, token, profile)
	})
}

// Login authenticates and lands on the dashboard.
func (c *Controller) Login(ctx context.Context, email, password string) (domain.AppSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return c.Snapshot(), fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	c.mutate(func(s *domain.AppSession) { s.IsLoading = true })
	resp, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.mutate(func(s *domain.AppSession) { s.IsLoading = false })
		return c.Snapshot(), err
	}

	return c.completeSignIn(ctx, resp.AccessToken)
}

// Register creates an account, then signs in with it.
func (c *Controller) Register(ctx context.Context, req domain.SignupRequest) (domain.AppSession, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.Snapshot(), fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if req.Role == "" {
		req.Role = domain.RolePatient
	}
	if !req.Role.Valid() {
		return c.Snapshot(), fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	c.mutate(func(s *domain.AppSession) { s.IsLoading = true })
	if _, err := c.auth.Signup(ctx, req); err != nil {
		c.mutate(func(s *domain.AppSession) { s.IsLoading = false })
		return c.Snapshot(), err
	}

	resp, err := c.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		c.mutate(func(s *domain.AppSession) { s.IsLoading = false })
		return c.Snapshot(), err
	}
	return c.completeSignIn(ctx, resp.AccessToken)
}

func (c *Controller) completeSignIn(ctx context.Context, token string) (domain.AppSession, error) {
	profile, err := c.auth.Profile(ctx, token)
	if err != nil {
		c.mutate(func(s *domain.AppSession) { s.IsLoading = false })
		return c.Snapshot(), err
	}

	if err := c.prefs.Set(tokenKey, token); err != nil {
		c.log.Warn("persist token failed", "err", err)
	}
	c.tokens.SetToken(token)

	return c.mutate(func(s *domain.AppSession) {
		signIn(s, token, profile)
	}), nil
}

func signIn(s *domain.AppSession, token string, profile domain.Profile) {
	s.IsLoggedIn = true
	s.AccessToken = token
	s.UserRole = profile.Role
	s.Profile = &profile
	s.IsLoading = false
	s.CurrentScreen = domain.ScreenDashboard
	s.NavHistory = []domain.Screen{}
}

// Logout resets the session to the login screen.
func (c *Controller) Logout() domain.AppSession {
	c.clearToken()
	return c.mutate(func(s *domain.AppSession) {
		*s = newSession()
		s.CurrentScreen = domain.ScreenLogin
	})
}

func (c *Controller) clearToken() {
	if err := c.prefs.Delete(tokenKey); err != nil {
		c.log.Warn("clear token failed", "err", err)
	}
	c.tokens.SetToken("")
}

// NavigateTo parses an identifier from the view layer and transitions to it.
func (c *Controller) NavigateTo(screen string, payload *domain.NavPayload) (domain.AppSession, error) {
	target, err := domain.ParseScreen(screen)
	if err != nil {
		c.log.Warn("rejected navigation", "screen", screen)
		return c.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownScreen, screen)
	}
	return c.Go(target, payload), nil
}

// Go pushes the current screen and moves to target.
func (c *Controller) Go(target domain.Screen, payload *domain.NavPayload) domain.AppSession {
	return c.mutate(func(s *domain.AppSession) {
		s.NavHistory = append(s.NavHistory, s.CurrentScreen)
		s.CurrentScreen = target
		if payload != nil {
			if payload.Clinic != nil {
				clinic := *payload.Clinic
				s.SelectedClinic = &clinic
			}
			if payload.Article != nil {
				article := *payload.Article
				s.SelectedArticle = &article
			}
		}
	})
}

// GoBack pops the history. With nothing to pop it lands on the dashboard when
// signed in and on login otherwise.
func (c *Controller) GoBack() domain.AppSession {
	return c.mutate(func(s *domain.AppSession) {
		if n := len(s.NavHistory); n > 0 {
			s.CurrentScreen = s.NavHistory[n-1]
			s.NavHistory = s.NavHistory[:n-1]
			return
		}
		if s.IsLoggedIn {
			s.CurrentScreen = domain.ScreenDashboard
		} else {
			s.CurrentScreen = domain.ScreenLogin
		}
	})
}

// OnLeave registers fn to run after the session moves off screen, whichever
// transition caused it.
func (c *Controller) OnLeave(screen domain.Screen, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLeave[screen] = append(c.onLeave[screen], fn)
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() domain.AppSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySession(c.session)
}

func (c *Controller) mutate(fn func(*domain.AppSession)) domain.AppSession {
	c.mu.Lock()
	from := c.session.CurrentScreen
	fn(&c.session)
	c.session.View = Render(c.session)
	snapshot := copySession(c.session)
	var hooks []func()
	if from != snapshot.CurrentScreen {
		hooks = append(hooks, c.onLeave[from]...)
	}
	c.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	c.events.NavigationChanged(snapshot)
	return snapshot
}

func copySession(s domain.AppSession) domain.AppSession {
	out := s
	out.NavHistory = append([]domain.Screen{}, s.NavHistory...)
	if s.Profile != nil {
		profile := *s.Profile
		out.Profile = &profile
	}
	if s.SelectedClinic != nil {
		clinic := *s.SelectedClinic
		out.SelectedClinic = &clinic
	}
	if s.SelectedArticle != nil {
		article := *s.SelectedArticle
		out.SelectedArticle = &article
	}
	return out
}
