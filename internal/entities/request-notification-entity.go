package entities

import "time"

// RequestNotification — сообщение о заявке в чате. Исходный текст хранится
// отдельно от приписки о статусе, итоговый текст = OriginalText + Annotation.
// Sequence — id записи истории, которую сейчас показывает сообщение.
type RequestNotification struct {
	RequestID    uint64    `db:"request_id"`
	ChatID       int64     `db:"chat_id"`
	MessageID    int64     `db:"message_id"`
	OriginalText string    `db:"original_text"`
	Annotation   string    `db:"annotation"`
	HasPhoto     bool      `db:"has_photo"`
	Sequence     uint64    `db:"sequence"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (n RequestNotification) Text() string {
	return n.OriginalText + n.Annotation
}
