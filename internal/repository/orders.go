package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/grabmart-system/internal/model"
)

// CreateGrantedOrder сохраняет новый заказ в статусе PENDING. Проверка
// дневного лимита выполняется под блокировкой строки пользователя, чтобы
// параллельные выдачи не превысили лимит.
func (r *PostgresRepository) CreateGrantedOrder(ctx context.Context, o *model.Order, limit int) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var completedToday int
		err = tx.QueryRow(ctx,
			`SELECT orders_completed_today FROM users WHERE id = $1 FOR UPDATE`,
			o.UserID,
		).Scan(&completedToday)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user for grant: %w", err)
		}

		if completedToday >= limit {
			return ErrDailyLimitReached
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO orders (id, user_id, product_name, product_image, amount, commission, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID, o.UserID, o.ProductName, o.ProductImage,
			toCents(o.Amount), toCents(o.Commission), string(o.Status),
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, product_name, product_image, amount, commission, status, created_at
		 FROM orders WHERE id = $1`,
		orderID,
	)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return o, nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_name, product_image, amount, commission, status, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func scanOrder(row interface{ Scan(dest ...any) error }) (*model.Order, error) {
	var (
		o           model.Order
		amountC     int64
		commissionC int64
		status      string
		createdAt   time.Time
	)

	err := row.Scan(&o.ID, &o.UserID, &o.ProductName, &o.ProductImage, &amountC, &commissionC, &status, &createdAt)
	if err != nil {
		return nil, err
	}

	o.Amount = fromCents(amountC)
	o.Commission = fromCents(commissionC)
	o.Status = model.OrderStatus(status)
	o.CreatedAt = createdAt

	return &o, nil
}

// DeleteOrder удаляет заказ. Удаление несуществующего идентификатора не является ошибкой.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// SettleOrder подтверждает заказ: зачисляет комиссию, увеличивает дневной
// счётчик, переводит заказ в COMPLETED и добавляет запись COMMISSION в журнал.
// Все четыре эффекта применяются в одной транзакции под блокировкой строки
// пользователя. Повторное подтверждение завершённого заказа — no-op.
func (r *PostgresRepository) SettleOrder(ctx context.Context, orderID string) (settled bool, err error) {
	err = r.withRetry(ctx, func() error {
		settled = false

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var (
			userID      int64
			amountC     int64
			commissionC int64
			status      string
			productName string
		)
		err = tx.QueryRow(ctx,
			`SELECT user_id, amount, commission, status, product_name
			 FROM orders WHERE id = $1 FOR UPDATE`,
			orderID,
		).Scan(&userID, &amountC, &commissionC, &status, &productName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if model.OrderStatus(status) == model.OrderStatusCompleted {
			return nil
		}

		var balanceC int64
		err = tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id = $1 FOR UPDATE`,
			userID,
		).Scan(&balanceC)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		// Стоимость заказа не списывается: проверка лишь блокирует
		// подтверждение заказов, которые пользователь «не может себе позволить».
		if balanceC < amountC {
			return ErrHighValueOrder
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance + $2, orders_completed_today = orders_completed_today + 1
			 WHERE id = $1`,
			userID, commissionC,
		)
		if err != nil {
			return fmt.Errorf("credit commission: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE id = $1`,
			orderID, string(model.OrderStatusCompleted),
		)
		if err != nil {
			return fmt.Errorf("complete order: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO transactions (id, user_id, type, amount, status, details)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), userID, string(model.TransactionTypeCommission),
			commissionC, string(model.TransactionStatusCompleted), "Order "+productName,
		)
		if err != nil {
			return fmt.Errorf("insert commission transaction: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		settled = true
		return nil
	})

	return settled, err
}
