package media_test

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/internal/media"
	"github.com/androfit/agent/internal/turndetect"
	"github.com/androfit/agent/internal/vad"
	"github.com/androfit/agent/pkg/domain"
)

// fakeRecognizer returns canned transcripts in order, one per segment.
type fakeRecognizer struct {
	texts []string
	calls int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, segment domain.Segment) (string, error) {
	if f.calls >= len(f.texts) {
		return "", nil
	}
	text := f.texts[f.calls]
	f.calls++
	return text, nil
}

type failingRecognizer struct{}

func (failingRecognizer) Recognize(ctx context.Context, segment domain.Segment) (string, error) {
	return "", fmt.Errorf("stt unavailable")
}

// speechFrames produces n loud frames of 20ms at 16kHz.
func speechFrames(n int) []domain.Frame {
	frames := make([]domain.Frame, n)
	for i := range frames {
		samples := make([]int16, 320)
		for j := range samples {
			samples[j] = int16(0.5 * math.MaxInt16 * math.Sin(float64(j)/4))
		}
		frames[i] = domain.Frame{Samples: samples, SampleRate: 16000}
	}
	return frames
}

func silenceFrames(n int) []domain.Frame {
	frames := make([]domain.Frame, n)
	for i := range frames {
		frames[i] = domain.Frame{Samples: make([]int16, 320), SampleRate: 16000}
	}
	return frames
}

func feed(frames chan<- domain.Frame, batches ...[]domain.Frame) {
	for _, batch := range batches {
		for _, f := range batch {
			frames <- f
		}
	}
	close(frames)
}

func runPipeline(t *testing.T, p *media.Pipeline, frames chan domain.Frame) []media.Utterance {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), frames)
	}()

	var got []media.Utterance
	for utt := range p.Utterances() {
		got = append(got, utt)
	}

	require.NoError(t, <-done)
	return got
}

func TestPipeline_EndToEndUtterance(t *testing.T) {
	p := media.New(media.Config{
		VAD:           vad.New(vad.WithAttack(1), vad.WithHangover(2)),
		Recognizer:    &fakeRecognizer{texts: []string{"I want a leg workout."}},
		Turn:          turndetect.New(),
		TurnThreshold: 0.6,
		MinSpeech:     50 * time.Millisecond,
	})

	frames := make(chan domain.Frame, 64)
	go feed(frames, speechFrames(20), silenceFrames(5))

	got := runPipeline(t, p, frames)
	require.Len(t, got, 1)
	assert.Equal(t, "I want a leg workout.", got[0].Text)
}

func TestPipeline_JoinsOpenTurns(t *testing.T) {
	// Two segments; the first trails off on a connective, so both must be
	// merged into one utterance.
	p := media.New(media.Config{
		VAD:           vad.New(vad.WithAttack(1), vad.WithHangover(2)),
		Recognizer:    &fakeRecognizer{texts: []string{"I want to train chest and", "also shoulders."}},
		Turn:          turndetect.New(),
		TurnThreshold: 0.6,
		MinSpeech:     50 * time.Millisecond,
	})

	frames := make(chan domain.Frame, 128)
	go feed(frames, speechFrames(20), silenceFrames(5), speechFrames(20), silenceFrames(5))

	got := runPipeline(t, p, frames)
	require.Len(t, got, 1)
	assert.Equal(t, "I want to train chest and also shoulders.", got[0].Text)
}

func TestPipeline_MaxHoldClosesTurn(t *testing.T) {
	p := media.New(media.Config{
		VAD:           vad.New(vad.WithAttack(1), vad.WithHangover(2)),
		Recognizer:    &fakeRecognizer{texts: []string{"I want to train chest and"}},
		Turn:          turndetect.New(),
		TurnThreshold: 0.6,
		TurnMaxHold:   100 * time.Millisecond,
		MinSpeech:     50 * time.Millisecond,
	})

	frames := make(chan domain.Frame, 64)

	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), frames)
	}()

	for _, f := range speechFrames(20) {
		frames <- f
	}
	for _, f := range silenceFrames(5) {
		frames <- f
	}

	// The turn is open; after TurnMaxHold it must be emitted anyway.
	select {
	case utt := <-p.Utterances():
		assert.True(t, strings.HasSuffix(utt.Text, "and"))
	case <-time.After(2 * time.Second):
		t.Fatal("utterance not emitted after max hold")
	}

	close(frames)
	require.NoError(t, <-done)
}

func TestPipeline_DropsShortSegments(t *testing.T) {
	p := media.New(media.Config{
		VAD:           vad.New(vad.WithAttack(1), vad.WithHangover(1)),
		Recognizer:    &fakeRecognizer{texts: []string{"should not appear"}},
		Turn:          turndetect.New(),
		TurnThreshold: 0.6,
		MinSpeech:     500 * time.Millisecond,
	})

	frames := make(chan domain.Frame, 64)
	go feed(frames, speechFrames(3), silenceFrames(3))

	got := runPipeline(t, p, frames)
	assert.Empty(t, got)
}

func TestPipeline_RecognizerErrorStopsRun(t *testing.T) {
	p := media.New(media.Config{
		VAD:           vad.New(vad.WithAttack(1), vad.WithHangover(2)),
		Recognizer:    failingRecognizer{},
		Turn:          turndetect.New(),
		TurnThreshold: 0.6,
		MinSpeech:     50 * time.Millisecond,
	})

	frames := make(chan domain.Frame, 64)
	go feed(frames, speechFrames(20), silenceFrames(5))

	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), frames)
	}()

	for range p.Utterances() {
	}

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stt unavailable")
}
