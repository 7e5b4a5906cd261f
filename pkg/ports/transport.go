package ports

import (
	"context"

	"github.com/androfit/agent/pkg/domain"
)

// Transport is the media leg of a session: where user audio comes from and
// where synthesized agent audio goes. A production deployment backs this
// with an SFU SDK; tests and dev mode use the in-process pipe transport.
type Transport interface {
	// Frames returns the channel of incoming audio frames. The channel is
	// closed when the remote side disconnects.
	Frames() <-chan domain.Frame

	// Play writes a synthesized segment to the remote side, blocking until
	// accepted or ctx is canceled.
	Play(ctx context.Context, segment domain.Segment) error

	// Close tears the media leg down.
	Close() error
}
