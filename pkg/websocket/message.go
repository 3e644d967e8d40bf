package websocket

import "time"

// Envelope — это "конверт", в котором мы отправляем наши сообщения.
// Тип сообщения позволяет фронтенду понять, что делать.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}
