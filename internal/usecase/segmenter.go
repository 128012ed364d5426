package usecase

import (
	"errors"
	"io"
	"time"

	"ruralhealth/internal/ports"
)

type capturedSegment struct {
	seq       int
	startedAt time.Time
	pcm       []byte
	muted     bool
}

type segmenter struct {
	segmentBytes int
	minTailBytes int
	chunkSize    int
	muted        func() bool
	now          func() time.Time
}

// pumpSegments cuts the PCM stream into fixed-size segments and hands each to
// dispatch as soon as it is complete. Capture is never paused for dispatch.
// A trailing partial segment is dispatched when it holds at least minTailBytes.
func (s segmenter) pumpSegments(audio ports.AudioSession, dispatch func(capturedSegment)) error {
	chunkSize := s.chunkSize
	if chunkSize < 256 {
		chunkSize = 4096
	}

	seq := 0
	current := capturedSegment{seq: seq, startedAt: s.now(), pcm: make([]byte, 0, s.segmentBytes)}
	flush := func() {
		current.muted = s.muted()
		dispatch(current)
		seq++
		current = capturedSegment{seq: seq, startedAt: s.now(), pcm: make([]byte, 0, s.segmentBytes)}
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		data := buf[:n]
		for len(data) > 0 {
			room := s.segmentBytes - len(current.pcm)
			if room > len(data) {
				room = len(data)
			}
			current.pcm = append(current.pcm, data[:room]...)
			data = data[room:]
			if len(current.pcm) >= s.segmentBytes {
				flush()
			}
		}

		if err != nil {
			if len(current.pcm) >= s.minTailBytes && len(current.pcm) > 0 {
				current.muted = s.muted()
				dispatch(current)
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func segmentSizes(sampleRate, channels, segmentSeconds int) (segmentBytes, minTailBytes int) {
	bytesPerSecond := sampleRate * channels * 2
	return bytesPerSecond * segmentSeconds, bytesPerSecond / 2
}
