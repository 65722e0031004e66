package messaging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/routegate/service/messaging"
	"github.com/viant/routegate/service/messaging/memory"
)

type note struct {
	ID string
}

func TestListener(t *testing.T) {
	ctx := context.Background()
	config := memory.DefaultConfig()
	config.RetryDelay = time.Millisecond
	queue := memory.NewQueue[note](config)

	var mu sync.Mutex
	attempts := map[string]int{}
	handled := make(chan string, 10)
	listener := messaging.NewListener[note](queue, func(ctx context.Context, n *note) error {
		mu.Lock()
		attempts[n.ID]++
		count := attempts[n.ID]
		mu.Unlock()
		if n.ID == "flaky" && count == 1 {
			return errors.New("transient")
		}
		handled <- n.ID
		return nil
	}).WithLogger(zerolog.Nop())
	listener.Start(ctx)
	defer listener.Stop()

	require.NoError(t, queue.Publish(ctx, &note{ID: "a"}))
	require.NoError(t, queue.Publish(ctx, &note{ID: "flaky"}))

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case id := <-handled:
			got = append(got, id)
		case <-timeout:
			t.Fatalf("handled only %v", got)
		}
	}
	assert.ElementsMatch(t, []string{"a", "flaky"}, got)
	mu.Lock()
	assert.EqualValues(t, 2, attempts["flaky"])
	mu.Unlock()

	listener.Stop()
	listener.Stop()
}
