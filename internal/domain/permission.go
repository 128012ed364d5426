package domain

// PermissionState is the microphone capability/consent lifecycle.
type PermissionState string

const (
	PermissionUnknown     PermissionState = "unknown"
	PermissionChecking    PermissionState = "checking"
	PermissionRequesting  PermissionState = "requesting"
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
	PermissionUnavailable PermissionState = "unavailable"
)

// PermissionStatus is the result of a non-prompting permission query.
type PermissionStatus string

const (
	PermissionStatusGranted PermissionStatus = "granted"
	PermissionStatusDenied  PermissionStatus = "denied"
	PermissionStatusPrompt  PermissionStatus = "prompt"
)

// PermissionErrorKind classifies a failed device acquisition.
type PermissionErrorKind string

const (
	PermissionErrDenied          PermissionErrorKind = "denied"
	PermissionErrNoDevice        PermissionErrorKind = "no_device"
	PermissionErrUnsupported     PermissionErrorKind = "unsupported"
	PermissionErrDeviceBusy      PermissionErrorKind = "device_busy"
	PermissionErrOverConstrained PermissionErrorKind = "over_constrained"
	PermissionErrSecurity        PermissionErrorKind = "security"
	PermissionErrUnknown         PermissionErrorKind = "unknown"
)

// Remediation returns the user-facing instructions for a failed acquisition.
func (k PermissionErrorKind) Remediation(detail string) string {
	switch k {
	case PermissionErrDenied:
		return "Microphone access was denied. To enable it, allow microphone access for this application in your system privacy settings, then press Retry."
	case PermissionErrNoDevice:
		return "No microphone was found. Please connect a microphone and try again."
	case PermissionErrUnsupported:
		return "Audio recording is not supported with the current capture settings. Please check the configured input format or use text chat."
	case PermissionErrDeviceBusy:
		return "Your microphone is being used by another application. Please close other apps using the microphone and try again."
	case PermissionErrOverConstrained:
		return "Microphone settings are not compatible. Please try again with default settings."
	case PermissionErrSecurity:
		return "Security settings prevent microphone access. Please check your system settings."
	default:
		if detail == "" {
			detail = "Unknown error"
		}
		return "Unable to access microphone: " + detail + ". Please check your settings and try the text chat option."
	}
}

// PermissionMessage is the static status line shown next to the indicator.
func PermissionMessage(state PermissionState) string {
	switch state {
	case PermissionGranted:
		return "Microphone access granted"
	case PermissionDenied:
		return "Microphone access denied"
	case PermissionUnavailable:
		return "Microphone unavailable"
	case PermissionChecking:
		return "Checking permissions..."
	case PermissionRequesting:
		return "Requesting permission..."
	default:
		return "Permission not checked"
	}
}

// PermissionSnapshot is the observable permission state.
type PermissionSnapshot struct {
	State        PermissionState `json:"state"`
	Reason       string          `json:"reason,omitempty"`
	TextFallback bool            `json:"textFallback"`
	Checked      bool            `json:"checked"`
}
