package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"maintenance-desk/internal/repositories"
	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/constants"
	"maintenance-desk/pkg/telegram"

	"go.uber.org/zap"
)

const (
	queueSize       = 100
	dedupExpiration = 10 * time.Minute
	pollTimeout     = 30 * time.Second
	pollRetryDelay  = 3 * time.Second
	handlerTimeout  = 45 * time.Second
)

var ErrQueueFull = errors.New("очередь обновлений бота переполнена")

// Bot обрабатывает входящие обновления Telegram. Обновления одного чата
// попадают в одну очередь и обрабатываются строго по порядку, разные чаты
// обрабатываются параллельно.
type Bot struct {
	tg            telegram.ServiceInterface
	requests      services.RequestServiceInterface
	notifications repositories.NotificationRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	logger        *zap.Logger

	queues []chan telegram.Update
	wg     sync.WaitGroup
}

func NewBot(
	tg telegram.ServiceInterface,
	requests services.RequestServiceInterface,
	notifications repositories.NotificationRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	workers int,
	logger *zap.Logger,
) *Bot {
	if workers <= 0 {
		workers = 1
	}
	queues := make([]chan telegram.Update, workers)
	for i := range queues {
		queues[i] = make(chan telegram.Update, queueSize)
	}
	return &Bot{
		tg:            tg,
		requests:      requests,
		notifications: notifications,
		cacheRepo:     cacheRepo,
		logger:        logger,
		queues:        queues,
	}
}

// Start запускает воркеры. Они завершаются вместе с ctx.
func (b *Bot) Start(ctx context.Context) {
	for i, queue := range b.queues {
		b.wg.Add(1)
		go b.worker(ctx, i, queue)
	}
	b.logger.Info("Бот запущен", zap.Int("workers", len(b.queues)))
}

// Wait дожидается остановки воркеров.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) worker(ctx context.Context, n int, queue <-chan telegram.Update) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-queue:
			b.process(ctx, n, update)
		}
	}
}

func (b *Bot) process(ctx context.Context, n int, update telegram.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Паника при обработке обновления", zap.Int("worker", n), zap.Int64("updateID", update.UpdateID), zap.Any("panic", r))
		}
	}()

	handlerCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()
	b.HandleUpdate(handlerCtx, update)
}

// Enqueue не блокирует вызывающего: вебхук должен отвечать сразу.
func (b *Bot) Enqueue(update telegram.Update) error {
	chatID := update.ChatID()
	if chatID < 0 {
		chatID = -chatID
	}
	queue := b.queues[chatID%int64(len(b.queues))]

	select {
	case queue <- update:
		return nil
	default:
		b.logger.Warn("Обновление отброшено", zap.Int64("updateID", update.UpdateID), zap.Int64("chatID", update.ChatID()))
		return ErrQueueFull
	}
}

// Poll читает обновления через getUpdates, пока не отменён ctx.
func (b *Bot) Poll(ctx context.Context) {
	if err := b.tg.DeleteWebhook(ctx); err != nil {
		b.logger.Warn("Не удалось удалить вебхук перед long polling", zap.Error(err))
	}

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := b.tg.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("Ошибка получения обновлений", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if err := b.Enqueue(update); err != nil {
				b.logger.Warn("Обновление не поставлено в очередь", zap.Int64("updateID", update.UpdateID), zap.Error(err))
			}
		}
	}
}

// HandleUpdate обрабатывает одно обновление синхронно.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	if !b.firstSeen(ctx, fmt.Sprintf(constants.CacheKeyTelegramUpdate, update.UpdateID)) {
		b.logger.Debug("Повторное обновление пропущено", zap.Int64("updateID", update.UpdateID))
		return
	}

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// firstSeen — дедупликация повторных доставок через кэш. При ошибке кэша
// обновление обрабатывается.
func (b *Bot) firstSeen(ctx context.Context, key string) bool {
	ok, err := b.cacheRepo.SetNX(ctx, key, "1", dedupExpiration)
	if err != nil {
		b.logger.Warn("Ошибка кэша при дедупликации", zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}
