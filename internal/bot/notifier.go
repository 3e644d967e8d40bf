package bot

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"maintenance-desk/internal/entities"
	"maintenance-desk/internal/events"
	"maintenance-desk/internal/repositories"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/eventbus"
	"maintenance-desk/pkg/filestorage"
	"maintenance-desk/pkg/telegram"

	"go.uber.org/zap"
)

// Держим смену статуса, пришедшую раньше отправки самого сообщения.
const pendingTTL = 10 * time.Minute

var ErrNotifierStopped = errors.New("уведомитель остановлен")

// Notifier зеркалирует состояние заявок в чат диспетчерской. Ошибки отправки
// только логируются и никогда не влияют на саму заявку.
//
// События одной заявки попадают в одну очередь и обрабатываются строго в
// порядке публикации; разные заявки обрабатываются параллельно.
type Notifier struct {
	tg            telegram.ServiceInterface
	notifications repositories.NotificationRepositoryInterface
	storage       filestorage.FileStorageInterface
	chatID        int64
	logger        *zap.Logger

	queues  []chan eventbus.Event
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool

	pendingMu sync.Mutex
	pending   map[uint64]pendingChange
}

type pendingChange struct {
	event events.RequestStatusChangedEvent
	at    time.Time
}

func NewNotifier(
	tg telegram.ServiceInterface,
	notifications repositories.NotificationRepositoryInterface,
	storage filestorage.FileStorageInterface,
	chatID int64,
	workers int,
	logger *zap.Logger,
) *Notifier {
	if workers <= 0 {
		workers = 1
	}
	queues := make([]chan eventbus.Event, workers)
	for i := range queues {
		queues[i] = make(chan eventbus.Event, queueSize)
	}
	return &Notifier{
		tg:            tg,
		notifications: notifications,
		storage:       storage,
		chatID:        chatID,
		logger:        logger,
		queues:        queues,
		pending:       make(map[uint64]pendingChange),
	}
}

// Register подписывает уведомитель на события заявок. Подписка синхронная:
// события встают в очередь в том порядке, в каком их опубликовали.
func (n *Notifier) Register(bus *eventbus.Bus) {
	bus.SubscribeSync(events.RequestCreatedName, n.enqueue)
	bus.SubscribeSync(events.RequestStatusChangedName, n.enqueue)
	bus.SubscribeSync(events.TechnicianFreedName, n.enqueue)
	n.logger.Info("Уведомления в Telegram включены", zap.Int64("chatID", n.chatID))
}

// Start запускает воркеры уведомлений.
func (n *Notifier) Start() {
	for i, queue := range n.queues {
		n.wg.Add(1)
		go n.worker(i, queue)
	}
}

// Stop перестаёт принимать события и дожидается обработки уже поставленных.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if !n.stopped {
		n.stopped = true
		for _, queue := range n.queues {
			close(queue)
		}
	}
	n.mu.Unlock()
	n.wg.Wait()
}

func (n *Notifier) enqueue(_ context.Context, e eventbus.Event) error {
	requestID, ok := eventRequestID(e)
	if !ok {
		return fmt.Errorf("неверный тип события %T", e)
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stopped {
		return ErrNotifierStopped
	}

	select {
	case n.queues[requestID%uint64(len(n.queues))] <- e:
		return nil
	default:
		n.logger.Warn("Уведомление отброшено", zap.String("event", e.Name()), zap.Uint64("requestID", requestID))
		return ErrQueueFull
	}
}

func eventRequestID(e eventbus.Event) (uint64, bool) {
	switch event := e.(type) {
	case events.RequestCreatedEvent:
		return event.Request.ID, true
	case events.RequestStatusChangedEvent:
		return event.Request.ID, true
	case events.TechnicianFreedEvent:
		return event.RequestID, true
	}
	return 0, false
}

func (n *Notifier) worker(i int, queue <-chan eventbus.Event) {
	defer n.wg.Done()
	for e := range queue {
		n.process(i, e)
	}
}

func (n *Notifier) process(i int, e eventbus.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Паника при отправке уведомления", zap.Int("worker", i), zap.String("event", e.Name()), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var err error
	switch e.(type) {
	case events.RequestCreatedEvent:
		err = n.OnRequestCreated(ctx, e)
	case events.RequestStatusChangedEvent:
		err = n.OnStatusChanged(ctx, e)
	case events.TechnicianFreedEvent:
		err = n.OnTechnicianFreed(ctx, e)
	}
	if err != nil {
		n.logger.Error("Ошибка отправки уведомления", zap.String("event", e.Name()), zap.Error(err))
	}
}

func (n *Notifier) OnRequestCreated(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.RequestCreatedEvent)
	if !ok {
		return fmt.Errorf("неверный тип события %T", e)
	}
	request := event.Request
	text := CreationText(request)
	keyboard := telegram.WithKeyboard(Keyboard(request))

	var (
		sent     *telegram.Message
		hasPhoto bool
	)
	if request.PhotoPath.Valid {
		var err error
		sent, err = n.sendPhoto(ctx, request.PhotoPath.String, text, keyboard)
		if err != nil {
			n.logger.Warn("Не удалось отправить фото, отправляем текст", zap.Uint64("requestID", request.ID), zap.Error(err))
		} else {
			hasPhoto = true
		}
	}
	if sent == nil {
		var err error
		sent, err = n.tg.SendMessage(ctx, n.chatID, text, keyboard)
		if err != nil {
			return fmt.Errorf("не удалось отправить уведомление о заявке %d: %w", request.ID, err)
		}
	}

	record := &entities.RequestNotification{
		RequestID:    request.ID,
		ChatID:       n.chatID,
		MessageID:    sent.MessageID,
		OriginalText: text,
		HasPhoto:     hasPhoto,
		Sequence:     event.Sequence,
	}
	if err := n.notifications.Upsert(ctx, record); err != nil {
		return err
	}

	n.logger.Info("Отправлено уведомление о заявке", zap.Uint64("requestID", request.ID), zap.Int64("messageID", sent.MessageID))

	if change, ok := n.takePending(request.ID); ok {
		return n.OnStatusChanged(ctx, change)
	}
	return nil
}

func (n *Notifier) sendPhoto(ctx context.Context, photoPath, caption string, options ...telegram.MessageOption) (*telegram.Message, error) {
	file, err := n.storage.Open(ctx, photoPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return n.tg.SendPhoto(ctx, n.chatID, file, path.Base(photoPath), caption, options...)
}

// OnStatusChanged перерисовывает сообщение: исходный текст плюс ровно одна
// приписка и кнопки нового статуса.
func (n *Notifier) OnStatusChanged(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.RequestStatusChangedEvent)
	if !ok {
		return fmt.Errorf("неверный тип события %T", e)
	}
	request := event.Request

	record, err := n.notifications.FindByRequestID(ctx, request.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			n.logger.Debug("Нет сообщения для заявки, смена статуса отложена", zap.Uint64("requestID", request.ID))
			n.holdPending(event)
			return nil
		}
		return err
	}
	if record.Sequence > 0 && event.Sequence <= record.Sequence {
		n.logger.Debug("Устаревшая смена статуса пропущена",
			zap.Uint64("requestID", request.ID),
			zap.Uint64("sequence", event.Sequence),
			zap.Uint64("shown", record.Sequence),
		)
		return nil
	}

	annotation := Annotation(request, event.Actor.Name)
	text := record.OriginalText + annotation
	keyboard := telegram.WithKeyboard(Keyboard(request))

	if record.HasPhoto {
		err = n.tg.EditMessageCaption(ctx, record.ChatID, record.MessageID, text, keyboard)
	} else {
		err = n.tg.EditMessageText(ctx, record.ChatID, record.MessageID, text, keyboard)
	}
	if err != nil {
		return fmt.Errorf("не удалось обновить сообщение по заявке %d: %w", request.ID, err)
	}

	return n.notifications.UpdateAnnotation(ctx, request.ID, annotation, event.Sequence)
}

func (n *Notifier) OnTechnicianFreed(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.TechnicianFreedEvent)
	if !ok {
		return fmt.Errorf("неверный тип события %T", e)
	}
	if _, err := n.tg.SendMessage(ctx, n.chatID, FreedText(event.TechnicianName, event.RequestID)); err != nil {
		return fmt.Errorf("не удалось отправить сообщение об освобождении мастера: %w", err)
	}
	return nil
}

// holdPending запоминает последнюю смену статуса заявки, у которой ещё нет
// сообщения. Устаревшие записи выбрасываются.
func (n *Notifier) holdPending(event events.RequestStatusChangedEvent) {
	n.pendingMu.Lock()
	defer n.pendingMu.Unlock()

	now := time.Now()
	for id, change := range n.pending {
		if now.Sub(change.at) > pendingTTL {
			delete(n.pending, id)
		}
	}
	if held, ok := n.pending[event.Request.ID]; ok && held.event.Sequence > event.Sequence {
		return
	}
	n.pending[event.Request.ID] = pendingChange{event: event, at: now}
}

func (n *Notifier) takePending(requestID uint64) (events.RequestStatusChangedEvent, bool) {
	n.pendingMu.Lock()
	defer n.pendingMu.Unlock()

	change, ok := n.pending[requestID]
	if !ok {
		return events.RequestStatusChangedEvent{}, false
	}
	delete(n.pending, requestID)
	return change.event, true
}
