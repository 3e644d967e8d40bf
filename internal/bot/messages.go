package bot

import (
	"fmt"
	"strings"

	"maintenance-desk/internal/dto"
	"maintenance-desk/pkg/constants"
	"maintenance-desk/pkg/telegram"
)

// Маркеры приписки о статусе. Всё, что начинается с маркера, — приписка,
// а не исходный текст заявки.
const (
	markerAssigned   = "\n\n👷 "
	markerInProgress = "\n\n🔧 "
	markerCompleted  = "\n\n✅ "
	markerDenied     = "\n\n❌ "
)

var annotationMarkers = []string{markerAssigned, markerInProgress, markerCompleted, markerDenied}

// CreationText — исходный текст сообщения о новой заявке.
func CreationText(r dto.RequestResponseDTO) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("🚨 НОВАЯ ЗАЯВКА #%d\n\n📝 Описание: %s", r.ID, r.Description))
	if r.DeviceName.Valid {
		text.WriteString(fmt.Sprintf("\n🏭 Оборудование: %s", r.DeviceName.String))
	}
	if r.AuthorName != "" {
		text.WriteString(fmt.Sprintf("\n👤 Автор: %s", r.AuthorName))
	}
	return text.String()
}

// Annotation — приписка для текущего состояния заявки. Для New приписки нет.
func Annotation(r dto.RequestResponseDTO, actorName string) string {
	technician := r.TechnicianName.String
	switch r.Status {
	case constants.StatusAssigned:
		return markerAssigned + "Назначен мастер: " + technician
	case constants.StatusInProgress:
		return markerInProgress + "В работе: " + technician
	case constants.StatusCompleted:
		return markerCompleted + "Выполнена: " + technician
	case constants.StatusDenied:
		if actorName != "" {
			return markerDenied + "Отклонена: " + actorName
		}
		return markerDenied + "Отклонена"
	}
	return ""
}

// StripAnnotation восстанавливает исходный текст: по очереди отрезает всё,
// начиная с первого вхождения каждого из маркеров.
func StripAnnotation(text string) string {
	for _, marker := range annotationMarkers {
		text = strings.SplitN(text, marker, 2)[0]
	}
	return text
}

// Render заменяет старую приписку новой.
func Render(text, annotation string) string {
	return StripAnnotation(text) + annotation
}

func FreedText(technicianName string, requestID uint64) string {
	return fmt.Sprintf("🟢 Мастер %s освободился (заявка #%d выполнена)", technicianName, requestID)
}

// CardText — карточка заявки для команды /request.
func CardText(r dto.RequestResponseDTO) string {
	text := fmt.Sprintf("📋 Заявка #%d\n📝 Описание: %s\n📌 Статус: %s", r.ID, r.Description, r.Status.Label())
	if r.TechnicianName.Valid {
		text += fmt.Sprintf("\n👷 Мастер: %s", r.TechnicianName.String)
	}
	return text
}

// Keyboard — кнопки для текущего статуса. У завершённых заявок кнопок нет.
func Keyboard(r dto.RequestResponseDTO) [][]telegram.InlineKeyboardButton {
	deny := telegram.InlineKeyboardButton{Text: "❌ Отклонить", CallbackData: callbackData(actionDeny, r.ID)}

	switch r.Status {
	case constants.StatusNew:
		return [][]telegram.InlineKeyboardButton{{
			{Text: "🛠 Взять в работу", CallbackData: callbackData(actionTake, r.ID)},
			deny,
		}}
	case constants.StatusAssigned:
		return [][]telegram.InlineKeyboardButton{
			{
				{Text: "🔧 Начать работу", CallbackData: callbackData(actionStart, r.ID)},
				{Text: "👷 Переназначить", CallbackData: callbackData(actionTake, r.ID)},
			},
			{deny},
		}
	case constants.StatusInProgress:
		return [][]telegram.InlineKeyboardButton{{
			{Text: "✅ Выполнено", CallbackData: callbackData(actionComplete, r.ID)},
			deny,
		}}
	}
	return nil
}

// CardKeyboard — прямое переключение статуса, как в исходном боте.
func CardKeyboard(requestID uint64) [][]telegram.InlineKeyboardButton {
	return [][]telegram.InlineKeyboardButton{
		{{Text: "🔧 В работе", CallbackData: callbackData(actionStatus, constants.StatusInProgress, requestID)}},
		{{Text: "✅ Выполнена", CallbackData: callbackData(actionStatus, constants.StatusCompleted, requestID)}},
		{{Text: "❌ Отклонена", CallbackData: callbackData(actionStatus, constants.StatusDenied, requestID)}},
	}
}

// AssignmentMenu — список мастеров с живой нагрузкой. Свободные выбираются,
// занятые только предупреждают.
func AssignmentMenu(requestID uint64, masters []dto.EmployeeDTO) [][]telegram.InlineKeyboardButton {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(masters)+1)
	for _, m := range masters {
		if m.ActiveTasks == 0 {
			rows = append(rows, []telegram.InlineKeyboardButton{{
				Text:         fmt.Sprintf("🟢 %s (0)", m.FullName),
				CallbackData: callbackData(actionAssign, m.ID, requestID),
			}})
			continue
		}
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         fmt.Sprintf("🔴 %s — занят (%d)", m.FullName, m.ActiveTasks),
			CallbackData: callbackData(actionBusy, m.ID, requestID),
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{
		Text:         "↩️ Отмена",
		CallbackData: callbackData(actionCancel, requestID),
	}})
	return rows
}
