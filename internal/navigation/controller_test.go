package navigation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/logging"
	"ruralhealth/internal/ports"
)

func TestNavigateRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	screens := domain.Screens()

	for trial := 0; trial < 25; trial++ {
		controller, _ := newTestController(&fakeAuth{})
		start := controller.Snapshot().CurrentScreen

		n := 1 + rng.Intn(10)
		for i := 0; i < n; i++ {
			target := screens[rng.Intn(len(screens))]
			if _, err := controller.NavigateTo(string(target), nil); err != nil {
				t.Fatalf("navigate failed: %v", err)
			}
		}
		for i := 0; i < n; i++ {
			controller.GoBack()
		}

		got := controller.Snapshot()
		if got.CurrentScreen != start {
			t.Fatalf("trial %d: expected %s after round trip, got %s", trial, start, got.CurrentScreen)
		}
		if len(got.NavHistory) != 0 {
			t.Fatalf("trial %d: expected empty history, got %v", trial, got.NavHistory)
		}
	}
}

func TestGoBackTerminalBehaviour(t *testing.T) {
	t.Parallel()

	controller, _ := newTestController(&fakeAuth{})
	if got := controller.GoBack(); got.CurrentScreen != domain.ScreenLogin {
		t.Fatalf("expected login when signed out, got %s", got.CurrentScreen)
	}

	auth := &fakeAuth{profile: domain.Profile{ID: "u1", Name: "Thandi", Role: domain.RolePatient}}
	controller, _ = newTestController(auth)
	if _, err := controller.Login(context.Background(), "t@example.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		got := controller.GoBack()
		if got.CurrentScreen != domain.ScreenDashboard {
			t.Fatalf("expected dashboard to be terminal, got %s", got.CurrentScreen)
		}
	}
}

func TestNavigateRejectsUnknownScreen(t *testing.T) {
	t.Parallel()

	controller, events := newTestController(&fakeAuth{})
	before := controller.Snapshot()
	emitted := events.count()

	_, err := controller.NavigateTo("billing", nil)
	if !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}

	after := controller.Snapshot()
	if after.CurrentScreen != before.CurrentScreen || len(after.NavHistory) != len(before.NavHistory) {
		t.Fatalf("session mutated on rejected navigation: %+v", after)
	}
	if events.count() != emitted {
		t.Fatalf("no event expected for rejected navigation")
	}
}

func TestNavigateMergesPayload(t *testing.T) {
	t.Parallel()

	controller, _ := newTestController(&fakeAuth{})
	clinic := &domain.Clinic{ID: "c1", Name: "Lusikisiki Clinic"}
	got, err := controller.NavigateTo(string(domain.ScreenClinicDetails), &domain.NavPayload{Clinic: clinic})
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	if got.SelectedClinic == nil || got.SelectedClinic.ID != "c1" {
		t.Fatalf("expected clinic payload, got %+v", got.SelectedClinic)
	}

	clinic.Name = "mutated"
	if controller.Snapshot().SelectedClinic.Name != "Lusikisiki Clinic" {
		t.Fatalf("payload must be copied into the session")
	}

	got, _ = controller.NavigateTo(string(domain.ScreenArticleView), &domain.NavPayload{Article: &domain.Article{ID: "a1"}})
	if got.SelectedClinic == nil || got.SelectedArticle == nil || got.SelectedArticle.ID != "a1" {
		t.Fatalf("expected merged payload, got %+v", got)
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("no token stays on splash", func(t *testing.T) {
		t.Parallel()
		auth := &fakeAuth{}
		controller, _ := newTestController(auth)
		got := controller.Restore(context.Background())
		if got.CurrentScreen != domain.ScreenSplash || got.IsLoggedIn {
			t.Fatalf("unexpected session: %+v", got)
		}
		if auth.profileCalls != 0 {
			t.Fatalf("expected no profile call")
		}
	})

	t.Run("valid token lands on dashboard", func(t *testing.T) {
		t.Parallel()
		auth := &fakeAuth{profile: domain.Profile{ID: "d1", Role: domain.RoleDoctor}}
		controller, _ := newTestController(auth)
		_ = controller.prefs.Set(tokenKey, "tok")

		got := controller.Restore(context.Background())
		if !got.IsLoggedIn || got.AccessToken != "tok" || got.CurrentScreen != domain.ScreenDashboard {
			t.Fatalf("unexpected session: %+v", got)
		}
		if got.View != domain.ViewClinicianDashboard {
			t.Fatalf("expected clinician dashboard, got %s", got.View)
		}
		if controller.tokens.(*fakeTokens).token != "tok" {
			t.Fatalf("expected token handed to backend client")
		}
	})

	t.Run("profile failure clears token without retry", func(t *testing.T) {
		t.Parallel()
		auth := &fakeAuth{profileErr: ports.ErrServiceUnavailable}
		controller, _ := newTestController(auth)
		_ = controller.prefs.Set(tokenKey, "stale")

		got := controller.Restore(context.Background())
		if got.CurrentScreen != domain.ScreenLogin || got.IsLoggedIn || got.AccessToken != "" {
			t.Fatalf("unexpected session: %+v", got)
		}
		if _, ok := controller.prefs.Get(tokenKey); ok {
			t.Fatalf("expected persisted token to be cleared")
		}
		if auth.profileCalls != 1 {
			t.Fatalf("expected exactly one profile attempt, got %d", auth.profileCalls)
		}
	})
}

func TestLoginValidationBeforeNetwork(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{}
	controller, _ := newTestController(auth)
	if _, err := controller.Login(context.Background(), "  ", "pw"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := controller.Register(context.Background(), domain.SignupRequest{Email: "a@b", Password: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if auth.loginCalls != 0 || auth.signupCalls != 0 {
		t.Fatalf("expected no network calls")
	}
}

func TestRegisterThenLogout(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{profile: domain.Profile{ID: "n1", Role: domain.RoleNurse}}
	controller, _ := newTestController(auth)

	got, err := controller.Register(context.Background(), domain.SignupRequest{
		Email: "n@example.com", Password: "pw", Name: "Nomsa", Role: domain.RoleNurse,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !got.IsLoggedIn || got.UserRole != domain.RoleNurse {
		t.Fatalf("unexpected session: %+v", got)
	}

	controller.Go(domain.ScreenTelemedicine, nil)
	got = controller.Logout()
	if got.IsLoggedIn || got.AccessToken != "" || got.CurrentScreen != domain.ScreenLogin || len(got.NavHistory) != 0 {
		t.Fatalf("unexpected session after logout: %+v", got)
	}
}

func TestLoginFailureKeepsSignedOut(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{loginErr: errors.New("invalid credentials")}
	controller, _ := newTestController(auth)
	got, err := controller.Login(context.Background(), "a@b", "bad")
	if err == nil {
		t.Fatalf("expected login error")
	}
	if got.IsLoggedIn || got.AccessToken != "" || got.IsLoading {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestTokenIffLoggedIn(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{profile: domain.Profile{ID: "a1", Role: domain.RoleAdmin}}
	controller, events := newTestController(auth)
	_, _ = controller.Login(context.Background(), "a@b", "pw")
	controller.Go(domain.ScreenAdminPanel, nil)
	controller.GoBack()
	controller.Logout()

	for _, s := range events.snapshot() {
		if (s.AccessToken != "") != s.IsLoggedIn {
			t.Fatalf("token/login mismatch in %+v", s)
		}
	}
}

func TestRenderDashboardByRole(t *testing.T) {
	t.Parallel()

	cases := map[domain.UserRole]domain.View{
		domain.RolePatient: domain.ViewPatientDashboard,
		domain.RoleDoctor:  domain.ViewClinicianDashboard,
		domain.RoleNurse:   domain.ViewClinicianDashboard,
		domain.RoleAdmin:   domain.ViewAdminDashboard,
		"":                 domain.ViewLogin,
	}
	for role, want := range cases {
		got := Render(domain.AppSession{CurrentScreen: domain.ScreenDashboard, UserRole: role})
		if got != want {
			t.Fatalf("role %q: expected %s, got %s", role, want, got)
		}
	}

	for _, screen := range domain.Screens() {
		if screen == domain.ScreenDashboard {
			continue
		}
		if got := Render(domain.AppSession{CurrentScreen: screen}); string(got) != string(screen) {
			t.Fatalf("screen %s rendered %s", screen, got)
		}
	}
}

func TestOnLeaveFiresWhenScreenIsLeft(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{profile: domain.Profile{ID: "u1", Name: "Thandi", Role: domain.RolePatient}}
	controller, _ := newTestController(auth)
	left := map[domain.Screen]int{}
	controller.OnLeave(domain.ScreenTelemedicine, func() { left[domain.ScreenTelemedicine]++ })
	controller.OnLeave(domain.ScreenAIAssistant, func() { left[domain.ScreenAIAssistant]++ })

	if _, err := controller.Login(context.Background(), "t@example.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	controller.Go(domain.ScreenTelemedicine, nil)
	controller.Go(domain.ScreenTelemedicine, nil)
	if left[domain.ScreenTelemedicine] != 0 {
		t.Fatalf("staying on the screen must not fire, got %d", left[domain.ScreenTelemedicine])
	}

	controller.Go(domain.ScreenDashboard, nil)
	if left[domain.ScreenTelemedicine] != 1 {
		t.Fatalf("expected one leave after navigating away, got %d", left[domain.ScreenTelemedicine])
	}

	for i := 0; i < 3; i++ {
		controller.GoBack()
	}
	if got := controller.Snapshot().CurrentScreen; got != domain.ScreenDashboard {
		t.Fatalf("expected dashboard after backing out, got %s", got)
	}
	if left[domain.ScreenTelemedicine] != 2 {
		t.Fatalf("expected leave on back navigation, got %d", left[domain.ScreenTelemedicine])
	}

	controller.Go(domain.ScreenAIAssistant, nil)
	controller.Logout()
	if left[domain.ScreenAIAssistant] != 1 {
		t.Fatalf("expected logout to leave the assistant, got %d", left[domain.ScreenAIAssistant])
	}
}

func newTestController(auth *fakeAuth) (*Controller, *fakeEvents) {
	events := &fakeEvents{}
	return NewController(auth, &fakeTokens{}, newFakePrefs(), events, logging.Discard()), events
}

type fakeAuth struct {
	profile    domain.Profile
	profileErr error
	loginErr   error

	loginCalls   int
	signupCalls  int
	profileCalls int
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (domain.LoginResponse, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return domain.LoginResponse{}, f.loginErr
	}
	return domain.LoginResponse{AccessToken: "token-" + email}, nil
}

func (f *fakeAuth) Signup(_ context.Context, req domain.SignupRequest) (domain.Profile, error) {
	f.signupCalls++
	return domain.Profile{Email: req.Email, Name: req.Name, Role: req.Role}, nil
}

func (f *fakeAuth) Profile(_ context.Context, _ string) (domain.Profile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return domain.Profile{}, f.profileErr
	}
	return f.profile, nil
}

type fakeTokens struct{ token string }

func (f *fakeTokens) SetToken(token string) { f.token = token }

type fakePrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakePrefs() *fakePrefs { return &fakePrefs{values: map[string]string{}} }

func (f *fakePrefs) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *fakePrefs) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakePrefs) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

type fakeEvents struct {
	mu       sync.Mutex
	sessions []domain.AppSession
}

func (f *fakeEvents) NavigationChanged(s domain.AppSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
}

func (f *fakeEvents) CallStateChanged(domain.CallStatus, domain.CallStateReason) {}
func (f *fakeEvents) PermissionChanged(domain.PermissionSnapshot) {}
func (f *fakeEvents) SegmentAppended(string, domain.TranscriptionSegment) {}
func (f *fakeEvents) DurationTick(string, int) {}
func (f *fakeEvents) ChatChanged(domain.ConnectionState, []domain.ChatMessage) {}
func (f *fakeEvents) LanguageChanged(string) {}
func (f *fakeEvents) SessionError(domain.ErrorCode, string) {}

func (f *fakeEvents) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeEvents) snapshot() []domain.AppSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AppSession{}, f.sessions...)
}
