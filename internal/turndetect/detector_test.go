package turndetect_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/internal/turndetect"
)

func TestEndOfTurn_Shapes(t *testing.T) {
	d := turndetect.New()
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		low  float64
		high float64
	}{
		{"empty", "", 0, 0},
		{"terminal punctuation", "I want to train legs today.", 0.9, 1},
		{"question", "What's next?", 0.9, 1},
		{"cjk terminal", "今日は脚の日です。", 0.9, 1},
		{"trailing connective en", "I want to do squats and", 0, 0.1},
		{"trailing connective es", "quiero entrenar pero", 0, 0.1},
		{"trailing filler", "so I was thinking um", 0, 0.1},
		{"ellipsis", "maybe we could...", 0.1, 0.2},
		{"unpunctuated phrase", "give me a leg workout for today", 0.5, 0.8},
		{"short fragment", "bench press", 0.3, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := d.EndOfTurn(ctx, tt.text)
			assert.GreaterOrEqual(t, p, tt.low)
			assert.LessOrEqual(t, p, tt.high)
		})
	}
}

func TestEndOfTurn_ContinuationBeatsLength(t *testing.T) {
	d := turndetect.New()
	ctx := context.Background()

	open := d.EndOfTurn(ctx, "I want to work on my chest and shoulders and")
	done := d.EndOfTurn(ctx, "I want to work on my chest and shoulders")
	assert.Less(t, open, done)
}

func TestNewFromFile_ExtendsLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("en:\n  - basically\n"), 0o644))

	d, err := turndetect.NewFromFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	p := d.EndOfTurn(ctx, "I want a full body workout basically")
	assert.Less(t, p, 0.2, "lexicon word must mark the turn as open")
}

func TestNewFromFile_Missing(t *testing.T) {
	_, err := turndetect.NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
