package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/androfit/agent/pkg/domain"
)

// pcmSampleRate is the sample rate of the API's raw PCM output format.
const pcmSampleRate = 24000

// Speech implements ports.Synthesizer via the speech endpoint.
type Speech struct {
	client *Client
	model  string
	voice  string
}

// NewSpeech creates a TTS adapter with the given model and voice.
func NewSpeech(client *Client, model, voice string) *Speech {
	return &Speech{client: client, model: model, voice: voice}
}

// Synthesize renders text to a PCM16 segment.
func (s *Speech) Synthesize(ctx context.Context, text string) (domain.Segment, error) {
	payload, err := json.Marshal(map[string]string{
		"model":           s.model,
		"voice":           s.voice,
		"input":           text,
		"response_format": "pcm",
	})
	if err != nil {
		return domain.Segment{}, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	resp, err := s.client.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, s.client.url("/audio/speech"), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return domain.Segment{}, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("failed to read speech response: %w", err)
	}

	return decodePCM16(data, pcmSampleRate), nil
}
