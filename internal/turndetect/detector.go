// Package turndetect estimates end-of-utterance probability from transcribed
// text. It is the text-side complement of the acoustic VAD: silence tells us
// the user stopped producing sound, this package tells us whether what they
// said reads as a finished thought in any of the supported languages.
package turndetect

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Probabilities returned for the recognized text shapes.
const (
	probTerminal     = 0.92 // ends with terminal punctuation
	probContinuation = 0.08 // trails off on a connective ("and", "pero", ...)
	probEllipsis     = 0.15 // explicit trailing ellipsis
	probLongDefault  = 0.65 // complete-looking phrase without punctuation
	probShortDefault = 0.40 // very short fragment
)

const shortUtteranceWords = 3

// Detector implements ports.TurnDetector with a multilingual heuristic.
// Safe for concurrent use after construction.
type Detector struct {
	continuations map[string]struct{}
}

// Option configures the Detector.
type Option func(*Detector)

// WithLexicon merges extra continuation words (lowercase) into the built-in
// multilingual table. The language key is informational; matching is done on
// the word alone.
func WithLexicon(lexicon map[string][]string) Option {
	return func(d *Detector) {
		for _, words := range lexicon {
			for _, w := range words {
				d.continuations[strings.ToLower(w)] = struct{}{}
			}
		}
	}
}

// New creates a detector with the built-in lexicon plus any options.
func New(opts ...Option) *Detector {
	d := &Detector{continuations: make(map[string]struct{}, len(builtinContinuations))}
	for _, w := range builtinContinuations {
		d.continuations[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromFile creates a detector extended with a lexicon file downloaded
// into the asset directory. The file is a YAML mapping of language code to
// word list.
func NewFromFile(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}

	var lexicon map[string][]string
	if err := yaml.Unmarshal(data, &lexicon); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon %s: %w", path, err)
	}

	return New(WithLexicon(lexicon)), nil
}

// EndOfTurn returns the probability, in [0, 1], that text is a complete
// utterance.
func (d *Detector) EndOfTurn(_ context.Context, text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	if strings.HasSuffix(trimmed, "...") || strings.HasSuffix(trimmed, "…") {
		return probEllipsis
	}

	last, _ := lastRune(trimmed)
	if isTerminal(last) {
		return probTerminal
	}

	words := strings.Fields(strings.ToLower(stripPunct(trimmed)))
	if len(words) == 0 {
		return 0
	}
	if _, ok := d.continuations[words[len(words)-1]]; ok {
		return probContinuation
	}

	if len(words) < shortUtteranceWords {
		return probShortDefault
	}
	return probLongDefault
}

func lastRune(s string) (rune, bool) {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0, false
	}
	return runes[len(runes)-1], true
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '؟':
		return true
	}
	return false
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, s)
}

// builtinContinuations are connectives and fillers that signal an unfinished
// utterance across the languages the coach commonly hears.
var builtinContinuations = []string{
	// English
	"and", "but", "so", "because", "or", "then", "um", "uh", "like",
	// Spanish
	"y", "pero", "porque", "entonces", "o", "este",
	// Portuguese
	"e", "mas", "porque", "então", "ou", "né",
	// French
	"et", "mais", "parce", "donc", "ou", "euh",
	// German
	"und", "aber", "weil", "also", "oder", "ähm",
	// Italian
	"e", "ma", "perché", "quindi", "allora",
}
