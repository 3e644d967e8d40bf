package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"maintenance-desk/internal/dto"
	"maintenance-desk/pkg/constants"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/telegram"

	"go.uber.org/zap"
)

const (
	startText       = "Бот диспетчерской запущен. Используйте /request <id> для просмотра заявки."
	requestUsage    = "Укажите номер заявки: /request <id>"
	requestNotFound = "Заявка не найдена."
	internalError   = "⚠️ Внутренняя ошибка, попробуйте позже"
)

// callbackReply гарантирует ровно один ответ на callback.
type callbackReply struct {
	answered  bool
	text      string
	showAlert bool
}

func (r *callbackReply) set(text string, showAlert bool) {
	r.answered = true
	r.text = text
	r.showAlert = showAlert
}

func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if !b.firstSeen(ctx, fmt.Sprintf(constants.CacheKeyTelegramCallback, query.ID)) {
		b.logger.Debug("Повторный callback пропущен", zap.String("callbackID", query.ID))
		return
	}

	reply := &callbackReply{}
	defer func() {
		if err := b.tg.AnswerCallbackQuery(ctx, query.ID, reply.text, reply.showAlert); err != nil {
			b.logger.Warn("Не удалось ответить на callback", zap.String("callbackID", query.ID), zap.Error(err))
		}
	}()
	if query.Message == nil {
		b.logger.Warn("Callback без сообщения", zap.String("data", query.Data))
		return
	}

	cb, err := ParseCallback(query.Data)
	if err != nil {
		b.logger.Warn("Неверный формат callback", zap.String("data", query.Data), zap.Error(err))
		return
	}

	actor := dto.Actor{Source: constants.SourceTelegram, Name: query.From.DisplayName()}
	if err := b.dispatch(ctx, query, cb, actor, reply); err != nil {
		b.logger.Error("Ошибка обработки callback",
			zap.String("action", cb.Action),
			zap.String("data", query.Data),
			zap.Error(err),
		)
		if !reply.answered {
			reply.set(userMessage(err), true)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, query *telegram.CallbackQuery, cb Callback, actor dto.Actor, reply *callbackReply) error {
	requestID, err := cb.LastID()
	if err != nil && cb.isKnown() {
		return apperrors.NewBadRequestError("%s", err.Error())
	}

	switch cb.Action {
	case actionTake:
		return b.showAssignmentMenu(ctx, query.Message, requestID)
	case actionAssign:
		technicianID, err := cb.ID(0)
		if err != nil || len(cb.Args) != 2 {
			return apperrors.NewBadRequestError("неверный формат assign: %v", cb.Args)
		}
		return b.assign(ctx, query.Message, requestID, technicianID, actor, reply)
	case actionBusy:
		technicianID, err := cb.ID(0)
		if err != nil || len(cb.Args) != 2 {
			return apperrors.NewBadRequestError("неверный формат busy: %v", cb.Args)
		}
		return b.warnBusy(ctx, technicianID, reply)
	case actionCancel:
		return b.restoreControls(ctx, query.Message, requestID)
	case actionDeny:
		return b.mutateFromCallback(ctx, query.Message, reply, "❌ Заявка отклонена", func() (*dto.RequestResponseDTO, error) {
			return b.requests.Deny(ctx, requestID, actor)
		})
	case actionStart:
		return b.mutateFromCallback(ctx, query.Message, reply, "🔧 Работа начата", func() (*dto.RequestResponseDTO, error) {
			return b.requests.StartWork(ctx, requestID, actor)
		})
	case actionComplete:
		return b.mutateFromCallback(ctx, query.Message, reply, "✅ Заявка выполнена", func() (*dto.RequestResponseDTO, error) {
			return b.requests.Complete(ctx, requestID, actor)
		})
	case actionStatus:
		if len(cb.Args) != 2 {
			return apperrors.NewBadRequestError("неверный формат status: %v", cb.Args)
		}
		status, ok := constants.ParseStatus(cb.Args[0])
		if !ok {
			return apperrors.NewBadRequestError("Недопустимый статус: %q", cb.Args[0])
		}
		return b.mutateFromCallback(ctx, query.Message, reply, "Статус: "+status.Label(), func() (*dto.RequestResponseDTO, error) {
			return b.requests.SetStatus(ctx, requestID, status, actor)
		})
	default:
		b.logger.Warn("Неизвестный action", zap.String("action", cb.Action), zap.String("data", query.Data))
	}
	return nil
}

func (c Callback) isKnown() bool {
	switch c.Action {
	case actionTake, actionAssign, actionBusy, actionCancel, actionDeny, actionStart, actionComplete, actionStatus:
		return true
	}
	return false
}

func (b *Bot) showAssignmentMenu(ctx context.Context, msg *telegram.Message, requestID uint64) error {
	if _, err := b.requests.FindRequest(ctx, requestID); err != nil {
		return err
	}
	masters, err := b.requests.GetEmployees(ctx)
	if err != nil {
		return err
	}
	return b.tg.EditMessageReplyMarkup(ctx, msg.Chat.ID, msg.MessageID, telegram.WithKeyboard(AssignmentMenu(requestID, masters)))
}

// assign перепроверяет нагрузку в момент нажатия: меню могло устареть.
func (b *Bot) assign(ctx context.Context, msg *telegram.Message, requestID, technicianID uint64, actor dto.Actor, reply *callbackReply) error {
	load, err := b.requests.ActiveLoad(ctx, technicianID)
	if err != nil {
		return err
	}
	if load > 0 {
		reply.set(fmt.Sprintf("⛔ Мастер уже занят (активных заявок: %d)", load), true)
		return b.showAssignmentMenu(ctx, msg, requestID)
	}

	return b.mutateFromCallback(ctx, msg, reply, "👷 Мастер назначен", func() (*dto.RequestResponseDTO, error) {
		return b.requests.AssignTechnician(ctx, requestID, technicianID, actor)
	})
}

func (b *Bot) warnBusy(ctx context.Context, technicianID uint64, reply *callbackReply) error {
	load, err := b.requests.ActiveLoad(ctx, technicianID)
	if err != nil {
		return err
	}
	reply.set(fmt.Sprintf("⛔ Мастер занят (активных заявок: %d). Выберите другого.", load), true)
	return nil
}

func (b *Bot) restoreControls(ctx context.Context, msg *telegram.Message, requestID uint64) error {
	request, err := b.requests.FindRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return b.tg.EditMessageReplyMarkup(ctx, msg.Chat.ID, msg.MessageID, telegram.WithKeyboard(Keyboard(*request)))
}

// mutateFromCallback выполняет изменение. Сообщение с записью в
// request_notifications перерисует Notifier по событию; любое другое сообщение
// (карточка /request, сообщение без записи) правится здесь по его тексту.
func (b *Bot) mutateFromCallback(ctx context.Context, msg *telegram.Message, reply *callbackReply, done string, fn func() (*dto.RequestResponseDTO, error)) error {
	updated, err := fn()
	if err != nil {
		return err
	}
	reply.set(done, false)

	record, err := b.notifications.FindByRequestID(ctx, updated.ID)
	switch {
	case err == nil && record.ChatID == msg.Chat.ID && record.MessageID == msg.MessageID:
		return nil
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		b.logger.Warn("Не удалось получить запись уведомления", zap.Uint64("requestID", updated.ID), zap.Error(err))
	}

	text := Render(msg.Body(), Annotation(*updated, ""))
	keyboard := telegram.WithKeyboard(Keyboard(*updated))
	if msg.HasPhoto() {
		err = b.tg.EditMessageCaption(ctx, msg.Chat.ID, msg.MessageID, text, keyboard)
	} else {
		err = b.tg.EditMessageText(ctx, msg.Chat.ID, msg.MessageID, text, keyboard)
	}
	if err != nil {
		b.logger.Warn("Не удалось обновить сообщение", zap.Uint64("requestID", updated.ID), zap.Error(err))
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	command, args := splitCommand(msg.Text)

	var err error
	switch command {
	case "/start":
		_, err = b.tg.SendMessage(ctx, msg.Chat.ID, startText)
	case "/request":
		err = b.handleRequestCommand(ctx, msg.Chat.ID, args)
	default:
		return
	}
	if err != nil {
		b.logger.Error("Ошибка обработки команды", zap.String("command", command), zap.Int64("chatID", msg.Chat.ID), zap.Error(err))
	}
}

func (b *Bot) handleRequestCommand(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 {
		_, err := b.tg.SendMessage(ctx, chatID, requestUsage)
		return err
	}
	requestID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		_, err := b.tg.SendMessage(ctx, chatID, requestUsage)
		return err
	}

	request, err := b.requests.FindRequest(ctx, requestID)
	if err != nil {
		var httpErr *apperrors.HttpError
		if errors.As(err, &httpErr) && httpErr.Code == 404 {
			_, err := b.tg.SendMessage(ctx, chatID, requestNotFound)
			return err
		}
		return err
	}

	_, err = b.tg.SendMessage(ctx, chatID, CardText(*request), telegram.WithKeyboard(CardKeyboard(request.ID)))
	return err
}

// splitCommand отделяет команду от аргументов и убирает суффикс @bot.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	command, _, _ := strings.Cut(fields[0], "@")
	return command, fields[1:]
}

// userMessage — текст для всплывающего уведомления. Внутренние ошибки не
// раскрываются.
func userMessage(err error) string {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) && httpErr.Code < 500 {
		return "⚠️ " + httpErr.Message
	}
	return internalError
}
