package openai

import (
	"bytes"
	"encoding/binary"

	"github.com/androfit/agent/pkg/domain"
)

// encodeWAV wraps mono PCM16 samples in a minimal RIFF/WAVE container, the
// format the transcription endpoint accepts.
func encodeWAV(segment domain.Segment) []byte {
	dataLen := len(segment.Samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	byteRate := segment.SampleRate * 2

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))             // chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))              // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1))              // mono
	binary.Write(buf, binary.LittleEndian, uint32(segment.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(2))              // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))             // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range segment.Samples {
		binary.Write(buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

// decodePCM16 parses raw little-endian PCM16 bytes into samples.
func decodePCM16(data []byte, sampleRate int) domain.Segment {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return domain.Segment{
		Samples:    samples,
		SampleRate: sampleRate,
	}
}
