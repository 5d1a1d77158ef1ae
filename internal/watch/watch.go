// Package watch доставляет уведомления об изменениях таблиц через
// PostgreSQL LISTEN/NOTIFY. Триггеры БД публикуют события в канал
// grabmart_changes; подписчики регистрируют обработчики по имени таблицы.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const channel = "grabmart_changes"

// Event описывает одно изменение строки таблицы.
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// Handler вызывается для каждого события соответствующей таблицы.
type Handler func(Event)

// Watcher слушает канал изменений и раздаёт события обработчикам.
type Watcher struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New создаёт наблюдатель изменений поверх указанного пула соединений.
func New(pool *pgxpool.Pool, logger *zap.Logger) *Watcher {
	return &Watcher{
		pool:     pool,
		logger:   logger,
		handlers: make(map[string][]Handler),
	}
}

// OnChange регистрирует обработчик событий таблицы. Обработчики вызываются
// последовательно в горутине наблюдателя и не должны блокироваться надолго.
func (w *Watcher) OnChange(table string, fn Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[table] = append(w.handlers[table], fn)
}

// Run слушает канал изменений до отмены контекста, переподключаясь при
// обрыве соединения.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		err := w.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			w.logger.Warn("change listener disconnected", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("listen %s: %w", channel, err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var ev Event
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			w.logger.Warn("malformed change payload", zap.String("payload", n.Payload), zap.Error(err))
			continue
		}

		w.dispatch(ev)
	}
}

func (w *Watcher) dispatch(ev Event) {
	w.mu.RLock()
	handlers := w.handlers[ev.Table]
	w.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
