package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"ruralhealth/internal/ports"
)

// WAVPackager wraps s16le PCM segments in a RIFF/WAVE header.
type WAVPackager struct {
	sampleRate int
	channels   int
}

func NewWAVPackager(sampleRate, channels int) WAVPackager {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	return WAVPackager{sampleRate: sampleRate, channels: channels}
}

func (p WAVPackager) Package(pcm []byte, seq int) ports.AudioClip {
	return ports.AudioClip{
		Data:     encodeWAV(pcm, p.sampleRate, p.channels),
		MimeType: "audio/wav",
		Filename: fmt.Sprintf("segment-%04d.wav", seq),
	}
}

func encodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
