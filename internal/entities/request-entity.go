package entities

import (
	"time"

	"maintenance-desk/pkg/constants"

	"github.com/aarondl/null/v8"
)

type Request struct {
	ID           uint64                  `db:"id"`
	Description  string                  `db:"description"`
	PhotoPath    null.String             `db:"photo_path"`
	Status       constants.RequestStatus `db:"status"`
	CreatedAt    time.Time               `db:"created_at"`
	UpdatedAt    time.Time               `db:"updated_at"`
	UserID       uint64                  `db:"user_id"`
	TechnicianID null.Uint64             `db:"technician_id"`
	DeviceID     null.Uint64             `db:"device_id"`
}
