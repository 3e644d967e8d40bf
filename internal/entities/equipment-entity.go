package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type Equipment struct {
	ID        uint64      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Code      string      `json:"code" db:"code"`
	ShopID    null.Uint64 `json:"shop_id" db:"shop_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
