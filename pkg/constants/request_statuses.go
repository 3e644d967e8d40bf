package constants

import "strings"

// RequestStatus — статус заявки. Совпадает со значением в БД.
type RequestStatus string

const (
	StatusNew        RequestStatus = "New"
	StatusAssigned   RequestStatus = "Assigned"
	StatusInProgress RequestStatus = "In Progress"
	StatusCompleted  RequestStatus = "Completed"
	StatusDenied     RequestStatus = "Denied"
)

// Устаревшее значение, которое присылали старые клиенты вместо Completed.
const legacyStatusProcessed = "Processed"

var AllStatuses = []RequestStatus{
	StatusNew,
	StatusAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusDenied,
}

var statusLabels = map[RequestStatus]string{
	StatusNew:        "Новая",
	StatusAssigned:   "Назначена",
	StatusInProgress: "В работе",
	StatusCompleted:  "Выполнена",
	StatusDenied:     "Отклонена",
}

// Разрешённые переходы для строгого режима.
var transitions = map[RequestStatus][]RequestStatus{
	StatusNew:        {StatusAssigned, StatusDenied},
	StatusAssigned:   {StatusAssigned, StatusInProgress, StatusDenied},
	StatusInProgress: {StatusCompleted, StatusDenied},
}

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label возвращает русское название статуса.
func (s RequestStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s RequestStatus) IsFinal() bool {
	return s == StatusCompleted || s == StatusDenied
}

// RequiresTechnician — в этих статусах у заявки обязан быть мастер.
func (s RequestStatus) RequiresTechnician() bool {
	return s == StatusAssigned || s == StatusInProgress || s == StatusCompleted
}

// ParseStatus принимает только значения закрытого набора (и устаревший Processed).
func ParseStatus(raw string) (RequestStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == legacyStatusProcessed {
		return StatusCompleted, true
	}
	s := RequestStatus(raw)
	if !s.Valid() {
		return "", false
	}
	return s, true
}

func CanTransition(from, to RequestStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
