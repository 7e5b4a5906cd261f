package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/androfit/agent/pkg/domain"
)

// Recognizer implements ports.Recognizer via the transcription endpoint.
type Recognizer struct {
	client *Client
	model  string
}

// NewRecognizer creates a Whisper-backed recognizer.
func NewRecognizer(client *Client, model string) *Recognizer {
	return &Recognizer{client: client, model: model}
}

// Recognize transcribes a speech segment.
func (r *Recognizer) Recognize(ctx context.Context, segment domain.Segment) (string, error) {
	wav := encodeWAV(segment)

	resp, err := r.client.do(ctx, func() (*http.Request, error) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)

		part, err := mw.CreateFormFile("file", "audio.wav")
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(wav); err != nil {
			return nil, err
		}
		if err := mw.WriteField("model", r.model); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequest(http.MethodPost, r.client.url("/audio/transcriptions"), &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return out.Text, nil
}
