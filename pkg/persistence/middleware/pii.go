package middleware

import (
	"context"
	"regexp"

	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

// mask replaces matched spans in persisted transcript content.
const mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks content matching the
// given patterns before a snapshot is persisted. The in-memory session the
// pipeline works with stays untouched; only the stored copy is redacted.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, session *domain.Session) error {
	cloned := *session
	cloned.Transcript = domain.Transcript{
		Messages: make([]domain.Message, len(session.Transcript.Messages)),
	}
	copy(cloned.Transcript.Messages, session.Transcript.Messages)

	for i := range cloned.Transcript.Messages {
		cloned.Transcript.Messages[i].Content = m.redact(cloned.Transcript.Messages[i].Content)
	}
	cloned.Error = m.redact(cloned.Error)

	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) redact(content string) string {
	for _, p := range m.patterns {
		content = p.ReplaceAllString(content, mask)
	}
	return content
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
