package listeners

import (
	"context"
	"fmt"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/events"
	"maintenance-desk/pkg/constants"
	"maintenance-desk/pkg/eventbus"

	"go.uber.org/zap"
)

// Broadcaster — рассылка всем подключенным клиентам (websocket.Hub).
type Broadcaster interface {
	Broadcast(messageType string, payload interface{}) error
}

type statusChangedPayload struct {
	Request   dto.RequestResponseDTO  `json:"request"`
	OldStatus constants.RequestStatus `json:"old_status"`
	Source    constants.Source        `json:"source"`
	Actor     string                  `json:"actor,omitempty"`
}

type technicianFreedPayload struct {
	RequestID      uint64 `json:"request_id"`
	TechnicianID   uint64 `json:"technician_id"`
	TechnicianName string `json:"technician_name"`
}

// WebSocketListener транслирует события заявок в живую ленту.
type WebSocketListener struct {
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewWebSocketListener(broadcaster Broadcaster, logger *zap.Logger) *WebSocketListener {
	return &WebSocketListener{broadcaster: broadcaster, logger: logger}
}

func (l *WebSocketListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.RequestCreatedName, l.handle)
	bus.Subscribe(events.RequestStatusChangedName, l.handle)
	bus.Subscribe(events.TechnicianFreedName, l.handle)
	l.logger.Info("WebSocketListener подписан на события заявок")
}

func (l *WebSocketListener) handle(_ context.Context, e eventbus.Event) error {
	var payload interface{}
	switch event := e.(type) {
	case events.RequestCreatedEvent:
		payload = event.Request
	case events.RequestStatusChangedEvent:
		payload = statusChangedPayload{
			Request:   event.Request,
			OldStatus: event.OldStatus,
			Source:    event.Actor.Source,
			Actor:     event.Actor.Name,
		}
	case events.TechnicianFreedEvent:
		payload = technicianFreedPayload{
			RequestID:      event.RequestID,
			TechnicianID:   event.TechnicianID,
			TechnicianName: event.TechnicianName,
		}
	default:
		return fmt.Errorf("неизвестное событие %s", e.Name())
	}
	return l.broadcaster.Broadcast(e.Name(), payload)
}
