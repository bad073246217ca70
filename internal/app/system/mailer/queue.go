package mailer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueClosed is returned by Send after Close.
var ErrQueueClosed = errors.New("mailer: queue closed")

// ErrQueueFull is returned by Send when the buffer is full.
var ErrQueueFull = errors.New("mailer: queue full")

// Queue delivers email through next on a background goroutine. Send only
// enqueues, so request latency does not depend on the SMTP server or on
// whether a message was sent at all.
type Queue struct {
	next Sender
	log  *zap.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan Email
	done   chan struct{}
}

// NewQueue starts a queue holding up to size pending messages.
func NewQueue(next Sender, size int, logger *zap.Logger) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{
		next: next,
		log:  logger,
		ch:   make(chan Email, size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// Send enqueues e without waiting for delivery.
func (q *Queue) Send(e Email) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.ch {
		if err := q.next.Send(e); err != nil {
			q.log.Error("send email failed", zap.String("subject", e.Subject), zap.Error(err))
		}
	}
}

// Close stops accepting messages and waits until the pending ones are
// delivered or ctx expires.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
