package domain

import "time"

// Frame is a chunk of mono PCM16 audio flowing through the media pipeline.
type Frame struct {
	// Samples holds signed 16-bit PCM samples.
	Samples []int16

	// SampleRate in Hz (e.g. 16000).
	SampleRate int

	// At is the capture timestamp of the first sample.
	At time.Time
}

// Duration returns the wall-clock length of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}

// Segment is a contiguous run of speech frames, as cut by the voice activity
// detector, ready for transcription.
type Segment struct {
	Samples    []int16
	SampleRate int
	Start      time.Time
	End        time.Time
}

// Duration returns the wall-clock length of the segment.
func (s Segment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}
