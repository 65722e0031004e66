package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Handler processes one payload; an error nacks the message.
type Handler[T any] func(ctx context.Context, payload *T) error

// Listener consumes a queue on its own goroutine until stopped.
type Listener[T any] struct {
	queue   Queue[T]
	handler Handler[T]
	logger  zerolog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewListener creates a listener; call Start to begin consuming.
func NewListener[T any](queue Queue[T], handler Handler[T]) *Listener[T] {
	return &Listener[T]{queue: queue, handler: handler, logger: log.Logger, done: make(chan struct{})}
}

// WithLogger sets the listener logger.
func (l *Listener[T]) WithLogger(logger zerolog.Logger) *Listener[T] {
	l.logger = logger
	return l
}

// Start launches the consume loop bound to ctx.
func (l *Listener[T]) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		defer close(l.done)
		for {
			msg, err := l.queue.Consume(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				l.logger.Warn().Err(err).Msg("queue_consume_failed")
				continue
			}
			if err = l.handler(ctx, msg.T()); err != nil {
				l.logger.Warn().Err(err).Str("message_id", msg.ID()).Msg("message_handler_failed")
				if nErr := msg.Nack(err); nErr != nil {
					l.logger.Warn().Err(nErr).Str("message_id", msg.ID()).Msg("message_nack_failed")
				}
				continue
			}
			if err = msg.Ack(); err != nil {
				l.logger.Warn().Err(err).Str("message_id", msg.ID()).Msg("message_ack_failed")
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (l *Listener[T]) Stop() {
	l.once.Do(func() {
		if l.cancel == nil {
			close(l.done)
			return
		}
		l.cancel()
		<-l.done
	})
}
