package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event представляет собой любое событие в системе.
type Event interface {
	Name() string
}

// Listener - это обработчик (слушатель) событий.
type Listener func(ctx context.Context, event Event) error

const listenerTimeout = time.Minute

// Bus - шина событий. Обычный слушатель вызывается в своей горутине,
// синхронный - прямо в Publish. Ошибки слушателей только логируются.
type Bus struct {
	listeners     map[string][]Listener
	syncListeners map[string][]Listener
	mu            sync.RWMutex
	wg        sync.WaitGroup
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners:     make(map[string][]Listener),
		syncListeners: make(map[string][]Listener),
		logger:        logger,
	}
}

// Subscribe подписывает слушателя на определенное событие.
func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// SubscribeSync подписывает слушателя, который вызывается в горутине
// публикующего, в порядке публикации. Слушатель должен сразу возвращать
// управление, например только ставить событие в свою очередь.
func (b *Bus) SubscribeSync(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncListeners[eventName] = append(b.syncListeners[eventName], listener)
}

// Publish публикует событие. Контекст вызывающего не передаётся слушателям:
// обработка не должна обрываться вместе с HTTP-запросом.
func (b *Bus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventName := event.Name()
	for _, listener := range b.syncListeners[eventName] {
		b.callSync(eventName, listener, event)
	}
	for _, listener := range b.listeners[eventName] {
		b.wg.Add(1)
		go func(l Listener) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("Паника в обработчике события", zap.String("event", eventName), zap.Any("panic", r))
				}
			}()

			ctxWithTimeout, cancel := context.WithTimeout(context.Background(), listenerTimeout)
			defer cancel()

			if err := l(ctxWithTimeout, event); err != nil {
				b.logger.Error("Ошибка в обработчике события",
					zap.String("event", eventName),
					zap.Error(err),
				)
			}
		}(listener)
	}
}

func (b *Bus) callSync(eventName string, l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Паника в синхронном обработчике события", zap.String("event", eventName), zap.Any("panic", r))
		}
	}()
	if err := l(context.Background(), event); err != nil {
		b.logger.Error("Ошибка в синхронном обработчике события",
			zap.String("event", eventName),
			zap.Error(err),
		)
	}
}

// Wait дожидается завершения всех запущенных обработчиков.
func (b *Bus) Wait() {
	b.wg.Wait()
}
