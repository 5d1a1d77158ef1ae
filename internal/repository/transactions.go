package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/grabmart-system/internal/model"
)

// CreateDepositRequest добавляет заявку на пополнение. Баланс изменится
// только после подтверждения администратором.
func (r *PostgresRepository) CreateDepositRequest(ctx context.Context, userID int64, amount float64, proof string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, status, details)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, string(model.TransactionTypeDeposit),
		toCents(amount), string(model.TransactionStatusPending), proof,
	)
	if err != nil {
		return "", fmt.Errorf("insert deposit request: %w", err)
	}
	return id, nil
}

// CreateWithdrawRequest переводит сумму в замороженный баланс и добавляет
// заявку на вывод. Использует блокировку строки пользователя для
// сериализации списаний.
func (r *PostgresRepository) CreateWithdrawRequest(ctx context.Context, userID int64, amount float64) (string, error) {
	amountC := toCents(amount)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceC int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&balanceC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lock user for update: %w", err)
	}

	if amountC > balanceC {
		return "", ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET balance = balance - $2, frozen_balance = frozen_balance + $2 WHERE id = $1`,
		userID, amountC,
	)
	if err != nil {
		return "", fmt.Errorf("freeze balance: %w", err)
	}

	id := uuid.NewString()
	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, userID, string(model.TransactionTypeWithdraw),
		amountC, string(model.TransactionStatusPending),
	)
	if err != nil {
		return "", fmt.Errorf("insert withdraw request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}

	return id, nil
}

// CreateTransaction добавляет произвольную запись журнала (административная операция).
func (r *PostgresRepository) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, status, details)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, string(t.Type), toCents(t.Amount), string(t.Status), t.Details,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (*model.Transaction, error) {
	var (
		t       model.Transaction
		amountC int64
		txType  string
		status  string
	)

	err := row.Scan(&t.ID, &t.UserID, &txType, &amountC, &status, &t.Details, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Type = model.TransactionType(txType)
	t.Status = model.TransactionStatus(status)
	t.Amount = fromCents(amountC)

	return &t, nil
}

const transactionColumns = `id, user_id, type, amount, status, details, created_at`

// GetTransactionsByUser возвращает журнал операций пользователя, новые первыми.
func (r *PostgresRepository) GetTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListTransactions возвращает журнал операций всех пользователей, новые первыми.
func (r *PostgresRepository) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]model.Transaction, error) {
	var res []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		res = append(res, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ApproveTransaction подтверждает заявку: пополнение зачисляется на баланс,
// замороженная сумма вывода сгорает. Уже обработанная заявка не изменяется.
func (r *PostgresRepository) ApproveTransaction(ctx context.Context, txID string) error {
	return r.transitionTransaction(ctx, txID, model.TransactionStatusApproved)
}

// RejectTransaction отклоняет заявку: замороженная сумма вывода возвращается
// на баланс; отклонённое пополнение баланс не меняет.
func (r *PostgresRepository) RejectTransaction(ctx context.Context, txID string) error {
	return r.transitionTransaction(ctx, txID, model.TransactionStatusRejected)
}

func (r *PostgresRepository) transitionTransaction(ctx context.Context, txID string, to model.TransactionStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		userID  int64
		txType  string
		amountC int64
		status  string
	)
	err = tx.QueryRow(ctx,
		`SELECT user_id, type, amount, status FROM transactions WHERE id = $1 FOR UPDATE`,
		txID,
	).Scan(&userID, &txType, &amountC, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("lock transaction: %w", err)
	}

	if model.TransactionStatus(status) != model.TransactionStatusPending {
		return nil
	}

	switch {
	case to == model.TransactionStatusApproved && model.TransactionType(txType) == model.TransactionTypeDeposit:
		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance + $2 WHERE id = $1`,
			userID, amountC,
		)
	case to == model.TransactionStatusApproved && model.TransactionType(txType) == model.TransactionTypeWithdraw:
		_, err = tx.Exec(ctx,
			`UPDATE users SET frozen_balance = frozen_balance - $2 WHERE id = $1`,
			userID, amountC,
		)
	case to == model.TransactionStatusRejected && model.TransactionType(txType) == model.TransactionTypeWithdraw:
		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance + $2, frozen_balance = frozen_balance - $2 WHERE id = $1`,
			userID, amountC,
		)
	}
	if err != nil {
		return fmt.Errorf("apply balance effect: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE transactions SET status = $2 WHERE id = $1`,
		txID, string(to),
	)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// DeleteTransaction удаляет запись журнала (административная операция).
func (r *PostgresRepository) DeleteTransaction(ctx context.Context, txID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}
