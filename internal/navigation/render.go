package navigation

import "ruralhealth/internal/domain"

// Render maps the current screen and role to the view that should be shown.
func Render(s domain.AppSession) domain.View {
	switch s.CurrentScreen {
	case domain.ScreenSplash:
		return domain.ViewSplash
	case domain.ScreenLogin:
		return domain.ViewLogin
	case domain.ScreenRegister:
		return domain.ViewRegister
	case domain.ScreenDashboard:
		return dashboardView(s.UserRole)
	case domain.ScreenClinicLocator:
		return domain.ViewClinicLocator
	case domain.ScreenClinicDetails:
		return domain.ViewClinicDetails
	case domain.ScreenAppointmentBooking:
		return domain.ViewAppointmentBooking
	case domain.ScreenTelemedicine:
		return domain.ViewTelemedicine
	case domain.ScreenHealthRecords:
		return domain.ViewHealthRecords
	case domain.ScreenHealthEducation:
		return domain.ViewHealthEducation
	case domain.ScreenArticleView:
		return domain.ViewArticleView
	case domain.ScreenAdminPanel:
		return domain.ViewAdminPanel
	case domain.ScreenAIAssistant:
		return domain.ViewAIAssistant
	case domain.ScreenTranslationDemo:
		return domain.ViewTranslationDemo
	}
	// Unreachable for screens produced by ParseScreen.
	return domain.ViewSplash
}

func dashboardView(role domain.UserRole) domain.View {
	switch role {
	case domain.RolePatient:
		return domain.ViewPatientDashboard
	case domain.RoleDoctor, domain.RoleNurse:
		return domain.ViewClinicianDashboard
	case domain.RoleAdmin:
		return domain.ViewAdminDashboard
	default:
		return domain.ViewLogin
	}
}
