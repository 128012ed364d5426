package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

const baseWordsPerMinute = 175

// ExecSpeaker reads AI replies aloud with a local speech synthesizer such as
// espeak-ng.
type ExecSpeaker struct {
	command string
	voice   string
}

func NewExecSpeaker(command, voice string) *ExecSpeaker {
	if command == "" {
		command = "espeak-ng"
	}
	return &ExecSpeaker{command: command, voice: voice}
}

// Speak blocks until the utterance finishes or ctx is cancelled.
func (s *ExecSpeaker) Speak(ctx context.Context, text string, rate float64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, s.command, speechArgs(s.voice, rate)...)
	cmd.Stdin = strings.NewReader(text)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("speak: %w: %s", err, trimSpace(string(out)))
	}
	return nil
}

func speechArgs(voice string, rate float64) []string {
	if rate <= 0 {
		rate = 1
	}
	args := []string{"-s", strconv.Itoa(int(math.Round(baseWordsPerMinute * rate)))}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	return append(args, "--stdin")
}
