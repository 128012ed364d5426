package audio

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"ruralhealth/internal/domain"
)

var stderrKinds = []struct {
	kind    domain.PermissionErrorKind
	needles []string
}{
	{kind: domain.PermissionErrDeviceBusy, needles: []string{"device or resource busy", "resource temporarily unavailable"}},
	{kind: domain.PermissionErrDenied, needles: []string{"permission denied", "operation not permitted", "access denied", "access to the device was denied"}},
	{kind: domain.PermissionErrSecurity, needles: []string{"not authorized", "authorization", "sandbox", "blocked by policy"}},
	{kind: domain.PermissionErrUnsupported, needles: []string{"unknown input format", "unknown format", "not compiled", "protocol not found"}},
	{kind: domain.PermissionErrOverConstrained, needles: []string{"invalid sample rate", "invalid channel", "invalid argument", "not supported by the device", "could not set"}},
	{kind: domain.PermissionErrNoDevice, needles: []string{"no such file or directory", "no such device", "no such entity", "cannot open audio device", "no soundcards", "connection refused"}},
}

// classifyStderr maps ffmpeg diagnostics onto a permission error kind.
func classifyStderr(stderr string) domain.PermissionErrorKind {
	lower := strings.ToLower(stderr)
	for _, row := range stderrKinds {
		for _, needle := range row.needles {
			if strings.Contains(lower, needle) {
				return row.kind
			}
		}
	}
	return domain.PermissionErrUnknown
}

func classifyStartErr(err error) domain.PermissionErrorKind {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return domain.PermissionErrUnsupported
	case errors.Is(err, os.ErrPermission):
		return domain.PermissionErrSecurity
	default:
		return domain.PermissionErrUnknown
	}
}
