package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_BroadcastReachesRegisteredClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	first := &Client{Hub: hub, Send: make(chan []byte, 1), UserID: 1}
	second := &Client{Hub: hub, Send: make(chan []byte, 1), UserID: 2}
	hub.Register(first)
	hub.Register(second)
	require.Equal(t, 2, hub.ClientCount())

	require.NoError(t, hub.Broadcast("request.created", map[string]int{"id": 7}))

	for _, c := range []*Client{first, second} {
		select {
		case raw := <-c.Send:
			var env Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			assert.Equal(t, "request.created", env.Type)
			assert.False(t, env.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("сообщение не доставлено")
		}
	}

	hub.Unregister(first)
	assert.Equal(t, 1, hub.ClientCount())
	_, open := <-first.Send
	assert.False(t, open)
}
