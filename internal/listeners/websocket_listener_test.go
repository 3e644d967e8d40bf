package listeners

import (
	"context"
	"sync"
	"testing"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/events"
	"maintenance-desk/pkg/constants"
	"maintenance-desk/pkg/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type broadcast struct {
	Type    string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []broadcast
}

func (b *recordingBroadcaster) Broadcast(messageType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, broadcast{messageType, payload})
	return nil
}

func TestWebSocketListenerBroadcastsLifecycleEvents(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	bus := eventbus.New(zap.NewNop())
	NewWebSocketListener(broadcaster, zap.NewNop()).Register(bus)

	request := dto.RequestResponseDTO{ID: 5, Description: "Leaking valve", Status: constants.StatusCompleted}
	bus.Publish(context.Background(), events.RequestStatusChangedEvent{
		Request:   request,
		OldStatus: constants.StatusInProgress,
		Actor:     dto.Actor{Source: constants.SourceTelegram, Name: "Анна"},
	})
	bus.Wait()
	bus.Publish(context.Background(), events.TechnicianFreedEvent{RequestID: 5, TechnicianID: 3, TechnicianName: "Петр"})
	bus.Wait()

	require.Len(t, broadcaster.messages, 2)
	assert.Equal(t, events.RequestStatusChangedName, broadcaster.messages[0].Type)
	payload := broadcaster.messages[0].Payload.(statusChangedPayload)
	assert.Equal(t, constants.StatusInProgress, payload.OldStatus)
	assert.Equal(t, constants.SourceTelegram, payload.Source)
	assert.Equal(t, uint64(5), payload.Request.ID)

	assert.Equal(t, events.TechnicianFreedName, broadcaster.messages[1].Type)
	assert.Equal(t, technicianFreedPayload{RequestID: 5, TechnicianID: 3, TechnicianName: "Петр"}, broadcaster.messages[1].Payload)
}
