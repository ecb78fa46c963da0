package communication

import (
	"context"
	"sync"
)

// Dispatcher delivers a rendered communication to its recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) error
}

// Recorder is an in-memory Dispatcher that records what would have been
// sent. It backs local development and tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Request
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Dispatch(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
	return nil
}

// Sent returns a copy of everything dispatched so far.
func (r *Recorder) Sent() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.sent))
	copy(out, r.sent)
	return out
}
