// Package media assembles the listening half of the voice loop: raw audio
// frames in, finished user utterances out. Stages run as goroutines joined
// by channels under one errgroup; the first stage error cancels the rest,
// and a clean close of the input drains downstream in order.
package media

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/androfit/agent/internal/logging"
	"github.com/androfit/agent/internal/metrics"
	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

// DefaultMinSpeech drops segments too short to carry a word.
const DefaultMinSpeech = 200 * time.Millisecond

// Utterance is one complete user turn.
type Utterance struct {
	Text  string
	Start time.Time
	End   time.Time
}

// Config wires the pipeline stages.
type Config struct {
	VAD        ports.VoiceDetector
	Recognizer ports.Recognizer
	Turn       ports.TurnDetector

	// TurnThreshold is the end-of-turn probability that closes a turn.
	TurnThreshold float64

	// TurnMaxHold force-closes an open turn when no more speech arrives.
	TurnMaxHold time.Duration

	// MinSpeech drops shorter speech segments. Zero means DefaultMinSpeech.
	MinSpeech time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Pipeline turns audio frames into utterances.
type Pipeline struct {
	cfg        Config
	utterances chan Utterance
}

// New creates a pipeline. The zero values of optional config fields are
// filled with defaults.
func New(cfg Config) *Pipeline {
	if cfg.MinSpeech == 0 {
		cfg.MinSpeech = DefaultMinSpeech
	}
	if cfg.TurnMaxHold == 0 {
		cfg.TurnMaxHold = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		utterances: make(chan Utterance, 4),
	}
}

// Run processes frames until the input closes or a stage fails. The
// utterance channel is closed when Run returns.
func (p *Pipeline) Run(ctx context.Context, frames <-chan domain.Frame) error {
	defer close(p.utterances)

	segments := make(chan domain.Segment, 4)
	texts := make(chan timedText, 4)

	grp, gCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		defer close(segments)
		return p.segment(gCtx, frames, segments)
	})

	grp.Go(func() error {
		defer close(texts)
		return p.recognize(gCtx, segments, texts)
	})

	grp.Go(func() error {
		return p.aggregate(gCtx, texts)
	})

	return grp.Wait()
}

// Utterances returns the channel of completed user turns.
func (p *Pipeline) Utterances() <-chan Utterance {
	return p.utterances
}

type timedText struct {
	text  string
	start time.Time
	end   time.Time
}

// segment gates frames through the VAD and cuts contiguous speech runs into
// segments.
func (p *Pipeline) segment(ctx context.Context, frames <-chan domain.Frame, out chan<- domain.Segment) error {
	var current *domain.Segment

	flush := func() error {
		if current == nil {
			return nil
		}
		seg := *current
		current = nil

		if seg.Duration() < p.cfg.MinSpeech {
			p.cfg.Logger.Debug("dropping short segment", "duration", seg.Duration())
			return nil
		}

		select {
		case out <- seg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return flush()
			}

			if p.cfg.VAD.IsSpeech(frame) {
				if current == nil {
					current = &domain.Segment{
						SampleRate: frame.SampleRate,
						Start:      frame.At,
					}
				}
				current.Samples = append(current.Samples, frame.Samples...)
				current.End = frame.At.Add(frame.Duration())
			} else if err := flush(); err != nil {
				return err
			}
		}
	}
}

// recognize transcribes segments.
func (p *Pipeline) recognize(ctx context.Context, segments <-chan domain.Segment, out chan<- timedText) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case seg, ok := <-segments:
			if !ok {
				return nil
			}

			start := time.Now()
			text, err := p.cfg.Recognizer.Recognize(ctx, seg)
			if err != nil {
				if p.cfg.Metrics != nil {
					p.cfg.Metrics.ProviderErrors.WithLabelValues("stt").Inc()
				}
				return err
			}
			if p.cfg.Metrics != nil {
				p.cfg.Metrics.StageDuration.WithLabelValues("stt").Observe(time.Since(start).Seconds())
			}

			if strings.TrimSpace(text) == "" {
				continue
			}

			select {
			case out <- timedText{text: text, start: seg.Start, end: seg.End}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// aggregate joins consecutive transcripts into turns. A turn closes when the
// detector is confident enough, or when TurnMaxHold passes without further
// speech.
func (p *Pipeline) aggregate(ctx context.Context, texts <-chan timedText) error {
	var pending *Utterance

	hold := time.NewTimer(p.cfg.TurnMaxHold)
	if !hold.Stop() {
		<-hold.C
	}

	emit := func() error {
		if pending == nil {
			return nil
		}
		utt := *pending
		pending = nil
		hold.Stop()

		select {
		case p.utterances <- utt:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-hold.C:
			// Max hold expired with the turn still open.
			if err := emit(); err != nil {
				return err
			}

		case tt, ok := <-texts:
			if !ok {
				return emit()
			}

			if pending == nil {
				pending = &Utterance{Text: tt.text, Start: tt.start, End: tt.end}
			} else {
				pending.Text = strings.TrimSpace(pending.Text + " " + tt.text)
				pending.End = tt.end
			}

			if p.cfg.Turn == nil || p.cfg.Turn.EndOfTurn(ctx, pending.Text) >= p.cfg.TurnThreshold {
				if err := emit(); err != nil {
					return err
				}
				continue
			}

			// Keep the turn open, bounded by the hold timer.
			if !hold.Stop() {
				select {
				case <-hold.C:
				default:
				}
			}
			hold.Reset(p.cfg.TurnMaxHold)
		}
	}
}
