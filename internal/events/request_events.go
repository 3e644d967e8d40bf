package events

import (
	"maintenance-desk/internal/dto"
	"maintenance-desk/pkg/constants"
)

const (
	RequestCreatedName       = "request.created"
	RequestStatusChangedName = "request.status_changed"
	TechnicianFreedName      = "technician.freed"
)

// RequestCreatedEvent публикуется после коммита новой заявки.
// Sequence — id строки request_history: по нему события одной заявки
// упорядочиваются в порядке коммитов.
type RequestCreatedEvent struct {
	EventID  string
	Sequence uint64
	Request  dto.RequestResponseDTO
	Actor    dto.Actor
}

func (e RequestCreatedEvent) Name() string { return RequestCreatedName }

// RequestStatusChangedEvent — любое изменение статуса или мастера.
type RequestStatusChangedEvent struct {
	EventID   string
	Sequence  uint64
	Request   dto.RequestResponseDTO
	OldStatus constants.RequestStatus
	Actor     dto.Actor
}

func (e RequestStatusChangedEvent) Name() string { return RequestStatusChangedName }

// TechnicianFreedEvent — заявка перешла в Completed из другого статуса.
type TechnicianFreedEvent struct {
	EventID        string
	RequestID      uint64
	TechnicianID   uint64
	TechnicianName string
}

func (e TechnicianFreedEvent) Name() string { return TechnicianFreedName }
