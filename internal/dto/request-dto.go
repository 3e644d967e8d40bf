package dto

import (
	"io"
	"time"

	"maintenance-desk/pkg/constants"

	"github.com/aarondl/null/v8"
)

type CreateRequestDTO struct {
	UserID      null.Uint64 `json:"user_id" validate:"required"`
	DeviceID    null.Uint64 `json:"device_id" validate:"omitempty,gt=0"`
	Description string      `json:"description" validate:"required,not_blank"`
}

// FileUpload — фото, приложенное к заявке.
type FileUpload struct {
	Reader      io.Reader
	FileName    string
	Size        int64
	ContentType string
}

type AssignTechnicianDTO struct {
	TechnicianID uint64 `json:"technician_id" validate:"required,gt=0"`
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required,request_status"`
}

type RequestListQuery struct {
	UserID null.Uint64
	Role   string
	Status string
	Limit  uint64
	Offset uint64
}

// Actor — кто и через какую поверхность изменил заявку.
type Actor struct {
	Source constants.Source
	Name   string
	UserID null.Uint64
}

type CreatedResponseDTO struct {
	ID uint64 `json:"id"`
}

type RequestResponseDTO struct {
	ID             uint64                  `json:"id"`
	Description    string                  `json:"description"`
	PhotoPath      null.String             `json:"photo_path"`
	Status         constants.RequestStatus `json:"status"`
	StatusLabel    string                  `json:"status_label"`
	CreatedAt      time.Time               `json:"created_at"`
	UserID         uint64                  `json:"user_id"`
	AuthorName     string                  `json:"author_name"`
	TechnicianID   null.Uint64             `json:"technician_id"`
	TechnicianName null.String             `json:"technician_name"`
	DeviceID       null.Uint64             `json:"device_id"`
	DeviceName     null.String             `json:"device_name"`
}

type RequestHistoryDTO struct {
	ID           uint64      `json:"id"`
	OldStatus    null.String `json:"old_status"`
	NewStatus    string      `json:"new_status"`
	TechnicianID null.Uint64 `json:"technician_id"`
	Source       string      `json:"source"`
	Actor        null.String `json:"actor"`
	CreatedAt    time.Time   `json:"created_at"`
}
