// Файл: internal/entities/user_entity.go
package entities

import (
	"time"

	"maintenance-desk/pkg/constants"

	"github.com/aarondl/null/v8"
)

// User — и автор заявки, и мастер (role = master).
type User struct {
	ID           uint64         `json:"id" db:"id"`
	Username     string         `json:"username" db:"username"`
	PasswordHash string         `json:"-" db:"password_hash"`
	FullName     string         `json:"full_name" db:"full_name"`
	Role         constants.Role `json:"role" db:"role"`
	ShopID       null.Uint64    `json:"shop_id" db:"shop_id"`
	TelegramID   null.Int64     `json:"telegram_id" db:"telegram_id"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

func (u User) IsMaster() bool {
	return u.Role == constants.RoleMaster
}
