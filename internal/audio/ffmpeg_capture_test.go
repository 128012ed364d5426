package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

func TestFFMPEGCaptureStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'hello'\nsleep 2\n")
	capture := NewFFMPEGCapture(script)

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	buf := make([]byte, 8)
	n, readErr := session.Read(buf)
	if n <= 0 {
		t.Fatalf("expected audio bytes, got n=%d err=%v", n, readErr)
	}
	if !strings.Contains(string(buf[:n]), "hello") {
		t.Fatalf("unexpected bytes: %q", string(buf[:n]))
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
}

func TestFFMPEGCaptureStartEarlyExitIsClassified(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "busy.sh", "#!/usr/bin/env bash\necho 'default: Device or resource busy' 1>&2\nexit 1\n")
	capture := NewFFMPEGCapture(script)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := capture.Start(ctx, ports.AudioConfig{})
	var permErr *ports.PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if permErr.Kind != domain.PermissionErrDeviceBusy {
		t.Fatalf("expected device busy, got %s", permErr.Kind)
	}
	if !strings.Contains(permErr.Detail, "Device or resource busy") {
		t.Fatalf("expected stderr detail, got %q", permErr.Detail)
	}
}

func TestFFMPEGCaptureMissingBinary(t *testing.T) {
	t.Parallel()

	capture := NewFFMPEGCapture(filepath.Join(t.TempDir(), "missing-ffmpeg"))
	_, err := capture.Start(context.Background(), ports.AudioConfig{})
	var permErr *ports.PermissionError
	if !errors.As(err, &permErr) || permErr.Kind != domain.PermissionErrUnsupported {
		t.Fatalf("expected unsupported permission error, got %v", err)
	}
}

func TestCaptureArgs(t *testing.T) {
	t.Parallel()

	cfg := withDefaults(ports.AudioConfig{})
	live := strings.Join(captureArgs(cfg, 0), " ")
	if !strings.Contains(live, "-f pulse -i default -ac 1 -ar 16000 -f s16le -") {
		t.Fatalf("unexpected live args %q", live)
	}
	args := strings.Join(captureArgs(cfg, 200*time.Millisecond), " ")
	if !strings.HasSuffix(args, "-t 0.20 -f null -") {
		t.Fatalf("unexpected test-acquire args %q", args)
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func TestClassifyStderr(t *testing.T) {
	t.Parallel()

	cases := []struct {
		stderr string
		want   domain.PermissionErrorKind
	}{
		{"hw:0: Permission denied", domain.PermissionErrDenied},
		{"default: No such file or directory", domain.PermissionErrNoDevice},
		{"Unknown input format: 'pulse'", domain.PermissionErrUnsupported},
		{"Device or resource busy", domain.PermissionErrDeviceBusy},
		{"Invalid sample rate 7", domain.PermissionErrOverConstrained},
		{"client not authorized", domain.PermissionErrSecurity},
		{"something odd", domain.PermissionErrUnknown},
	}
	for _, tc := range cases {
		if got := classifyStderr(tc.stderr); got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.stderr, tc.want, got)
		}
	}
}

type memoryPrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func (p *memoryPrefs) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *memoryPrefs) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values == nil {
		p.values = map[string]string{}
	}
	p.values[key] = value
	return nil
}

func (p *memoryPrefs) Delete(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}

const devicesListing = "Devices:\n D. = Demuxing supported\n .E = Muxing supported\n --\n DE alsa            ALSA audio output\n D  lavfi           Libavfilter virtual input device\n DE pulse           Pulse audio output\n  E sdl,sdl2        SDL2 output device\n"

func TestMicrophoneCapabilitiesOrder(t *testing.T) {
	t.Parallel()

	devices := writeScript(t, "devices.sh", "#!/usr/bin/env bash\nprintf '"+strings.ReplaceAll(devicesListing, "\n", "\\n")+"'\n")

	missing := NewMicrophone("ffmpeg", ports.AudioConfig{}, "https://health.example", nil)
	missing.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	if ok, reason := missing.Capabilities(context.Background()); ok || reason != reasonNoRecorder {
		t.Fatalf("expected missing recorder, got %v %q", ok, reason)
	}

	noInput := NewMicrophone(devices, ports.AudioConfig{InputFormat: "sdl"}, "https://health.example", nil)
	if ok, reason := noInput.Capabilities(context.Background()); ok || !strings.Contains(reason, `"sdl"`) {
		t.Fatalf("expected unsupported input, got %v %q", ok, reason)
	}

	insecure := NewMicrophone(devices, ports.AudioConfig{}, "http://health.example", nil)
	if ok, reason := insecure.Capabilities(context.Background()); ok || reason != reasonInsecure {
		t.Fatalf("expected insecure endpoint, got %v %q", ok, reason)
	}

	ready := NewMicrophone(devices, ports.AudioConfig{}, "http://localhost:8080", nil)
	if ok, reason := ready.Capabilities(context.Background()); !ok {
		t.Fatalf("expected capture capable, got %q", reason)
	}
}

func TestSecureEndpoint(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://health.example": true,
		"http://localhost:8080":  true,
		"http://127.0.0.1:8080":  true,
		"http://[::1]:8080":      true,
		"http://10.0.0.4:8080":   false,
		"not a url":              false,
	}
	for raw, want := range cases {
		if got := secureEndpoint(raw); got != want {
			t.Fatalf("%q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestMicrophoneTestAcquireRecordsOutcome(t *testing.T) {
	t.Parallel()

	prefs := &memoryPrefs{}
	denied := NewMicrophone(writeScript(t, "deny.sh", "#!/usr/bin/env bash\necho 'pulse: Access denied' 1>&2\nexit 1\n"), ports.AudioConfig{}, "", prefs)

	if status, _ := denied.Query(context.Background()); status != domain.PermissionStatusPrompt {
		t.Fatalf("expected prompt before any attempt, got %s", status)
	}
	err := denied.TestAcquire(context.Background(), ports.AudioConfig{})
	var permErr *ports.PermissionError
	if !errors.As(err, &permErr) || permErr.Kind != domain.PermissionErrDenied {
		t.Fatalf("expected denied error, got %v", err)
	}
	if status, _ := denied.Query(context.Background()); status != domain.PermissionStatusDenied {
		t.Fatalf("expected stored denial, got %s", status)
	}

	granted := NewMicrophone(writeScript(t, "ok.sh", "#!/usr/bin/env bash\nexit 0\n"), ports.AudioConfig{}, "", prefs)
	if err := granted.TestAcquire(context.Background(), ports.AudioConfig{}); err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}
	if status, _ := granted.Query(context.Background()); status != domain.PermissionStatusGranted {
		t.Fatalf("expected stored grant, got %s", status)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	t.Parallel()

	clip := NewWAVPackager(16000, 1).Package(make([]byte, 320), 7)
	if clip.Filename != "segment-0007.wav" || clip.MimeType != "audio/wav" {
		t.Fatalf("unexpected clip metadata %+v", clip)
	}
	data := clip.Data
	if len(data) != 44+320 {
		t.Fatalf("unexpected length %d", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Fatalf("malformed header")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Fatalf("unexpected sample rate %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 32000 {
		t.Fatalf("unexpected byte rate %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 320 {
		t.Fatalf("unexpected data size %d", got)
	}
}

func TestSpeechArgs(t *testing.T) {
	t.Parallel()

	got := strings.Join(speechArgs("en-gb", 0.9), " ")
	if got != "-s 158 -v en-gb --stdin" {
		t.Fatalf("unexpected args %q", got)
	}
}

func TestExecSpeakerPipesText(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "spoken.txt")
	script := writeScript(t, "speak.sh", "#!/usr/bin/env bash\ncat > "+out+"\n")
	if err := NewExecSpeaker(script, "").Speak(context.Background(), " Drink water ", 1); err != nil {
		t.Fatalf("speak: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "Drink water" {
		t.Fatalf("unexpected spoken text %q", data)
	}
}

type scriptedMic struct {
	mu       sync.Mutex
	acquires []error
	attempts int
	status   domain.PermissionStatus
}

func (p *scriptedMic) Capabilities(context.Context) (bool, string) { return true, "" }

func (p *scriptedMic) Query(context.Context) (domain.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

func (p *scriptedMic) TestAcquire(context.Context, ports.AudioConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if len(p.acquires) == 0 {
		return nil
	}
	err := p.acquires[0]
	p.acquires = p.acquires[1:]
	return err
}

func (p *scriptedMic) attemptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func fixedState(state domain.PermissionState, inCall bool) AccessState {
	return func() (domain.PermissionState, bool) { return state, inCall }
}

func TestDeviceWatcherReportsRecovery(t *testing.T) {
	t.Parallel()

	mic := &scriptedMic{
		status: domain.PermissionStatusDenied,
		acquires: []error{
			&ports.PermissionError{Kind: domain.PermissionErrDenied},
			&ports.PermissionError{Kind: domain.PermissionErrDeviceBusy},
			nil,
		},
	}
	watcher := NewDeviceWatcher(mic, ports.AudioConfig{}, fixedState(domain.PermissionDenied, false), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan domain.PermissionStatus, 4)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, func(status domain.PermissionStatus) {
			select {
			case changes <- status:
			default:
			}
		})
	}()

	select {
	case got := <-changes:
		if got != domain.PermissionStatusGranted {
			t.Fatalf("expected granted, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if mic.attemptCount() < 3 {
		t.Fatalf("expected three test acquires, got %d", mic.attemptCount())
	}
}

func TestDeviceWatcherOnlyAcquiresWhileDenied(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		state  domain.PermissionState
		inCall bool
	}{
		{name: "granted", state: domain.PermissionGranted},
		{name: "unknown", state: domain.PermissionUnknown},
		{name: "requesting", state: domain.PermissionRequesting},
		{name: "unavailable", state: domain.PermissionUnavailable},
		{name: "denied during call", state: domain.PermissionDenied, inCall: true},
		{name: "granted during call", state: domain.PermissionGranted, inCall: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mic := &scriptedMic{status: domain.PermissionStatusGranted}
			watcher := NewDeviceWatcher(mic, ports.AudioConfig{}, fixedState(tc.state, tc.inCall), 2*time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
			defer cancel()

			var changes []domain.PermissionStatus
			err := watcher.Watch(ctx, func(status domain.PermissionStatus) { changes = append(changes, status) })
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("expected deadline, got %v", err)
			}
			if mic.attemptCount() != 0 {
				t.Fatalf("expected no test acquires, got %d", mic.attemptCount())
			}
			if len(changes) != 0 {
				t.Fatalf("expected no changes, got %v", changes)
			}
		})
	}
}

func TestDeviceWatcherReportsRevocationWhileGranted(t *testing.T) {
	t.Parallel()

	mic := &scriptedMic{status: domain.PermissionStatusDenied}
	watcher := NewDeviceWatcher(mic, ports.AudioConfig{}, fixedState(domain.PermissionGranted, false), 2*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan domain.PermissionStatus, 1)
	go func() {
		_ = watcher.Watch(ctx, func(status domain.PermissionStatus) {
			select {
			case changes <- status:
			default:
			}
		})
	}()

	select {
	case got := <-changes:
		if got != domain.PermissionStatusDenied {
			t.Fatalf("expected denied, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for revocation")
	}
	if mic.attemptCount() != 0 {
		t.Fatalf("expected no test acquires while granted, got %d", mic.attemptCount())
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
