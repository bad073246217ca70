package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// gatedSender blocks every Send until release is closed.
type gatedSender struct {
	release chan struct{}

	mu   sync.Mutex
	sent []string
}

func (g *gatedSender) Send(e Email) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, e.To)
	return nil
}

func (g *gatedSender) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func TestQueue_SendDoesNotWaitForDelivery(t *testing.T) {
	g := &gatedSender{release: make(chan struct{})}
	q := NewQueue(g, 4, zap.NewNop())

	start := time.Now()
	for _, to := range []string{"a@example.com", "b@example.com"} {
		if err := q.Send(Email{To: to}); err != nil {
			t.Fatalf("Send(%s): %v", to, err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Send blocked for %v", elapsed)
	}
	if g.count() != 0 {
		t.Fatal("nothing should be delivered before the sender is released")
	}

	close(g.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := g.count(); got != 2 {
		t.Errorf("delivered: got %d, want 2", got)
	}
	if err := q.Send(Email{To: "late@example.com"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Send after Close: got %v, want ErrQueueClosed", err)
	}
}

func TestQueue_FullBufferRejects(t *testing.T) {
	g := &gatedSender{release: make(chan struct{})}
	q := NewQueue(g, 1, zap.NewNop())
	defer func() {
		close(g.release)
		q.Close(context.Background())
	}()

	// One message may be held by the worker and one by the buffer; the
	// third or fourth must be refused rather than block.
	var full bool
	for i := 0; i < 4; i++ {
		if err := q.Send(Email{To: "x@example.com"}); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	if !full {
		t.Error("expected ErrQueueFull once the buffer is exhausted")
	}
}
