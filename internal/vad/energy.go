// Package vad implements a lightweight energy-based voice activity detector.
// It classifies PCM16 frames by RMS energy with attack and hangover
// smoothing, so single loud clicks don't open the gate and short pauses
// inside an utterance don't close it.
package vad

import (
	"math"

	"github.com/androfit/agent/pkg/domain"
)

// Defaults tuned for 16 kHz mono speech with 20-40ms frames.
const (
	DefaultThreshold      = 0.015
	DefaultAttackFrames   = 2
	DefaultHangoverFrames = 8
)

// Detector classifies frames as speech or silence. Not safe for concurrent
// use: it carries smoothing state across consecutive frames of one stream.
type Detector struct {
	threshold float64
	attack    int
	hangover  int

	speechRun  int
	silenceRun int
	open       bool
}

// Option configures the Detector.
type Option func(*Detector)

// WithThreshold sets the normalized RMS level, in [0, 1], above which a
// frame counts as speech.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		d.threshold = threshold
	}
}

// WithAttack sets how many consecutive speech frames open the gate.
func WithAttack(frames int) Option {
	return func(d *Detector) {
		d.attack = frames
	}
}

// WithHangover sets how many consecutive silent frames close the gate.
func WithHangover(frames int) Option {
	return func(d *Detector) {
		d.hangover = frames
	}
}

// New creates a detector with the given options.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold: DefaultThreshold,
		attack:    DefaultAttackFrames,
		hangover:  DefaultHangoverFrames,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsSpeech reports whether the gate is open after observing the frame.
func (d *Detector) IsSpeech(frame domain.Frame) bool {
	if RMS(frame.Samples) >= d.threshold {
		d.speechRun++
		d.silenceRun = 0
	} else {
		d.silenceRun++
		d.speechRun = 0
	}

	if !d.open && d.speechRun >= d.attack {
		d.open = true
	}
	if d.open && d.silenceRun >= d.hangover {
		d.open = false
	}

	return d.open
}

// Reset clears the smoothing state, e.g. between segments.
func (d *Detector) Reset() {
	d.speechRun = 0
	d.silenceRun = 0
	d.open = false
}

// RMS returns the root-mean-square level of PCM16 samples, normalized to
// [0, 1].
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
