package audio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

// PermissionPreferenceKey stores the last consent outcome between runs.
const PermissionPreferenceKey = "microphone_permission"

const testAcquireLength = 200 * time.Millisecond

const (
	reasonNoRecorder = "Voice recording requires ffmpeg, which was not found on this system. You can continue with text chat."
	reasonNoEncoder  = "The audio recorder could not list its capture devices. You can continue with text chat."
	reasonNoInput    = "Audio input %q is not supported by the installed ffmpeg. You can continue with text chat."
	reasonInsecure   = "Voice transcription requires a secure (HTTPS) connection to the health service. You can continue with text chat."
)

// Microphone answers capability and consent questions about the local microphone.
type Microphone struct {
	command     string
	inputFormat string
	backendURL  string
	prefs       ports.PreferenceStore

	lookPath func(string) (string, error)
}

func NewMicrophone(command string, audio ports.AudioConfig, backendURL string, prefs ports.PreferenceStore) *Microphone {
	if command == "" {
		command = "ffmpeg"
	}
	return &Microphone{
		command:     command,
		inputFormat: withDefaults(audio).InputFormat,
		backendURL:  backendURL,
		prefs:       prefs,
		lookPath:    exec.LookPath,
	}
}

// Capabilities checks, in order, that the recorder exists, that it can
// capture from the configured input, and that uploads go to a secure endpoint.
func (p *Microphone) Capabilities(ctx context.Context) (bool, string) {
	if _, err := p.lookPath(p.command); err != nil {
		return false, reasonNoRecorder
	}

	out, err := exec.CommandContext(ctx, p.command, "-hide_banner", "-devices").CombinedOutput()
	if err != nil {
		return false, reasonNoEncoder
	}
	if !hasInputDevice(string(out), p.inputFormat) {
		return false, fmt.Sprintf(reasonNoInput, p.inputFormat)
	}

	if !secureEndpoint(p.backendURL) {
		return false, reasonInsecure
	}
	return true, ""
}

// Query reports the last recorded consent outcome without touching the device.
func (p *Microphone) Query(context.Context) (domain.PermissionStatus, error) {
	if p.prefs == nil {
		return domain.PermissionStatusPrompt, nil
	}
	saved, ok := p.prefs.Get(PermissionPreferenceKey)
	if !ok {
		return domain.PermissionStatusPrompt, nil
	}
	switch domain.PermissionStatus(saved) {
	case domain.PermissionStatusGranted:
		return domain.PermissionStatusGranted, nil
	case domain.PermissionStatusDenied:
		return domain.PermissionStatusDenied, nil
	default:
		return domain.PermissionStatusPrompt, nil
	}
}

// TestAcquire records a fraction of a second and discards it.
func (p *Microphone) TestAcquire(ctx context.Context, cfg ports.AudioConfig) error {
	cfg = withDefaults(cfg)

	cmd := exec.CommandContext(ctx, p.command, captureArgs(cfg, testAcquireLength)...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		p.remember(domain.PermissionStatusGranted)
		return nil
	}

	var permErr *ports.PermissionError
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		detail := trimSpace(stderr.String())
		permErr = &ports.PermissionError{Kind: classifyStderr(detail), Detail: detail}
	default:
		permErr = &ports.PermissionError{Kind: classifyStartErr(err), Detail: err.Error()}
	}
	if permErr.Kind == domain.PermissionErrDenied || permErr.Kind == domain.PermissionErrSecurity {
		p.remember(domain.PermissionStatusDenied)
	}
	return permErr
}

func (p *Microphone) remember(status domain.PermissionStatus) {
	if p.prefs == nil {
		return
	}
	_ = p.prefs.Set(PermissionPreferenceKey, string(status))
}

var deviceLine = regexp.MustCompile(`^\s*(D\S*)\s+(\S+)`)

// hasInputDevice scans `ffmpeg -devices` output for a demuxing device.
func hasInputDevice(listing, format string) bool {
	for _, line := range strings.Split(listing, "\n") {
		m := deviceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, name := range strings.Split(m[2], ",") {
			if name == format {
				return true
			}
		}
	}
	return false
}

func secureEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
