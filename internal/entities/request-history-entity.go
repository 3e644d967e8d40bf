package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// RequestHistory — одна строка на каждое изменение заявки.
type RequestHistory struct {
	ID           uint64      `db:"id"`
	RequestID    uint64      `db:"request_id"`
	OldStatus    null.String `db:"old_status"`
	NewStatus    string      `db:"new_status"`
	TechnicianID null.Uint64 `db:"technician_id"`
	Source       string      `db:"source"`
	Actor        null.String `db:"actor"`
	CreatedAt    time.Time   `db:"created_at"`
}
