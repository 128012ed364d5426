package domain

import "fmt"

// Screen identifies one top-level view of the application shell.
type Screen string

const (
	ScreenSplash             Screen = "splash"
	ScreenLogin              Screen = "login"
	ScreenRegister           Screen = "register"
	ScreenDashboard          Screen = "dashboard"
	ScreenClinicLocator      Screen = "clinic-locator"
	ScreenClinicDetails      Screen = "clinic-details"
	ScreenAppointmentBooking Screen = "appointment-booking"
	ScreenTelemedicine       Screen = "telemedicine"
	ScreenHealthRecords      Screen = "health-records"
	ScreenHealthEducation    Screen = "health-education"
	ScreenArticleView        Screen = "article-view"
	ScreenAdminPanel         Screen = "admin-panel"
	ScreenAIAssistant        Screen = "ai-assistant"
	ScreenTranslationDemo    Screen = "translation-demo"
)

var screens = []Screen{
	ScreenSplash,
	ScreenLogin,
	ScreenRegister,
	ScreenDashboard,
	ScreenClinicLocator,
	ScreenClinicDetails,
	ScreenAppointmentBooking,
	ScreenTelemedicine,
	ScreenHealthRecords,
	ScreenHealthEducation,
	ScreenArticleView,
	ScreenAdminPanel,
	ScreenAIAssistant,
	ScreenTranslationDemo,
}

// Screens lists every known screen in declaration order.
func Screens() []Screen {
	out := make([]Screen, len(screens))
	copy(out, screens)
	return out
}

// ParseScreen converts an untyped identifier from the view layer into a Screen.
func ParseScreen(value string) (Screen, error) {
	for _, s := range screens {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown screen %q", value)
}

// UserRole is the role attached to the signed-in profile.
type UserRole string

const (
	RolePatient UserRole = "patient"
	RoleDoctor  UserRole = "doctor"
	RoleNurse   UserRole = "nurse"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleNurse, RoleAdmin:
		return true
	default:
		return false
	}
}

// View is the concrete subtree selected for the current screen and role.
type View string

const (
	ViewSplash             View = "splash"
	ViewLogin              View = "login"
	ViewRegister           View = "register"
	ViewPatientDashboard   View = "patient-dashboard"
	ViewClinicianDashboard View = "clinician-dashboard"
	ViewAdminDashboard     View = "admin-dashboard"
	ViewClinicLocator      View = "clinic-locator"
	ViewClinicDetails      View = "clinic-details"
	ViewAppointmentBooking View = "appointment-booking"
	ViewTelemedicine       View = "telemedicine"
	ViewHealthRecords      View = "health-records"
	ViewHealthEducation    View = "health-education"
	ViewArticleView        View = "article-view"
	ViewAdminPanel         View = "admin-panel"
	ViewAIAssistant        View = "ai-assistant"
	ViewTranslationDemo    View = "translation-demo"
)

// Clinic is the navigation payload for clinic screens.
type Clinic struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Services     []string `json:"services,omitempty"`
	Hours        string   `json:"hours,omitempty"`
	Availability string   `json:"availability,omitempty"`
}

// Article is the navigation payload for the article screen.
type Article struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Body     string `json:"body,omitempty"`
}

// NavPayload carries optional data attached to a transition.
type NavPayload struct {
	Clinic  *Clinic  `json:"selectedClinic,omitempty"`
	Article *Article `json:"selectedArticle,omitempty"`
}

// AppSession is the shell's navigation and identity state.
type AppSession struct {
	CurrentScreen   Screen   `json:"currentScreen"`
	NavHistory      []Screen `json:"navHistory"`
	IsLoggedIn      bool     `json:"isLoggedIn"`
	UserRole        UserRole `json:"userRole,omitempty"`
	AccessToken     string   `json:"-"`
	Profile         *Profile `json:"profile,omitempty"`
	SelectedClinic  *Clinic  `json:"selectedClinic,omitempty"`
	SelectedArticle *Article `json:"selectedArticle,omitempty"`
	IsLoading       bool     `json:"isLoading"`
	View            View     `json:"view"`
}
