// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/grabmart-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже существующим логином.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrTransactionNotFound возвращается, если операция не найдена.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrCodeNotFound возвращается, если пригласительный код не найден или уже использован.
	ErrCodeNotFound = errors.New("registration code not found")
	// ErrDailyLimitReached возвращается, если дневной лимит заказов исчерпан.
	ErrDailyLimitReached = errors.New("daily order limit reached")
	// ErrHighValueOrder возвращается при подтверждении заказа, стоимость которого превышает баланс.
	ErrHighValueOrder = errors.New("order amount exceeds balance")
	// ErrInsufficientBalance возвращается при попытке списания суммы, превышающей баланс.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Денежные значения хранятся в центах; перевод выполняется на границе репозитория.
func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Pool возвращает пул соединений. Используется наблюдателем изменений для LISTEN.
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure и Deadlocks.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const userColumns = `id, username, password_hash, transaction_password_hash, full_name, phone_number,
	role, balance, frozen_balance, level, orders_completed_today, status, is_order_frozen,
	custom_daily_order_limit, custom_commission_rate, custom_min_balance_percent,
	custom_max_balance_percent, custom_max_order_amount, custom_specific_orders,
	referral_code, referred_by, ip_address, ip_region, last_online, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var (
		u            model.User
		balanceC     int64
		frozenC      int64
		maxOrderC    *int64
		riggedJSON   []byte
		role, status string
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.TransactionPasswordHash, &u.FullName, &u.PhoneNumber,
		&role, &balanceC, &frozenC, &u.Level, &u.OrdersCompletedToday, &status, &u.IsOrderFrozen,
		&u.CustomDailyOrderLimit, &u.CustomCommissionRate, &u.CustomMinBalancePercent,
		&u.CustomMaxBalancePercent, &maxOrderC, &riggedJSON,
		&u.ReferralCode, &u.ReferredBy, &u.IPAddress, &u.IPRegion, &u.LastOnline, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	u.Status = model.UserStatus(status)
	u.Balance = fromCents(balanceC)
	u.FrozenBalance = fromCents(frozenC)
	if maxOrderC != nil {
		v := fromCents(*maxOrderC)
		u.CustomMaxOrderAmount = &v
	}
	if len(riggedJSON) > 0 {
		if err := json.Unmarshal(riggedJSON, &u.CustomRiggedOrders); err != nil {
			return nil, fmt.Errorf("unmarshal specific orders: %w", err)
		}
	}

	return &u, nil
}

// RegisterUser создаёт пользователя и помечает пригласительный код использованным.
func (r *PostgresRepository) RegisterUser(ctx context.Context, u *model.User, codeID string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, transaction_password_hash, full_name, phone_number,
			role, level, referral_code, referred_by, ip_address, ip_region)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		u.Username, u.PasswordHash, u.TransactionPasswordHash, u.FullName, u.PhoneNumber,
		string(u.Role), u.Level, u.ReferralCode, u.ReferredBy, u.IPAddress, u.IPRegion,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Username)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	cmdTag, err := tx.Exec(ctx,
		`UPDATE registration_codes SET status = $2, used_by = $3, used_at = now()
		 WHERE id = $1 AND status = $4`,
		codeID, string(model.CodeStatusUsed), id, string(model.CodeStatusUnused),
	)
	if err != nil {
		return 0, fmt.Errorf("mark code used: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return 0, ErrCodeNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return id, nil
}

// GetUserByLogin возвращает пользователя по логину или номеру телефона.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR phone_number = $1`,
		login,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// GetUserByReferralCode возвращает пользователя по реферальному коду.
func (r *PostgresRepository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`,
		code,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// UserPolicy содержит индивидуальные переопределения политики пользователя.
// nil-поле записывается как NULL и означает отсутствие переопределения.
type UserPolicy struct {
	DailyOrderLimit   *int
	CommissionRate    *float64
	MinBalancePercent *float64
	MaxBalancePercent *float64
	MaxOrderAmount    *float64
	RiggedOrders      []model.RiggedOrder
	OrderFrozen       bool
}

// UpdateUserPolicy перезаписывает индивидуальные переопределения политики пользователя.
func (r *PostgresRepository) UpdateUserPolicy(ctx context.Context, userID int64, p UserPolicy) error {
	var maxOrderC *int64
	if p.MaxOrderAmount != nil {
		c := toCents(*p.MaxOrderAmount)
		maxOrderC = &c
	}

	rigged := p.RiggedOrders
	if rigged == nil {
		rigged = []model.RiggedOrder{}
	}
	riggedJSON, err := json.Marshal(rigged)
	if err != nil {
		return fmt.Errorf("marshal specific orders: %w", err)
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET custom_daily_order_limit = $2, custom_commission_rate = $3,
			custom_min_balance_percent = $4, custom_max_balance_percent = $5,
			custom_max_order_amount = $6, custom_specific_orders = $7, is_order_frozen = $8
		 WHERE id = $1`,
		userID, p.DailyOrderLimit, p.CommissionRate, p.MinBalancePercent, p.MaxBalancePercent,
		maxOrderC, riggedJSON, p.OrderFrozen,
	)
	if err != nil {
		return fmt.Errorf("update user policy: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateUserStatus изменяет состояние учётной записи.
func (r *PostgresRepository) UpdateUserStatus(ctx context.Context, userID int64, status model.UserStatus) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $2 WHERE id = $1`,
		userID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserLevel изменяет уровень пользователя.
func (r *PostgresRepository) UpdateUserLevel(ctx context.Context, userID int64, level int) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET level = $2 WHERE id = $1`,
		userID, level,
	)
	if err != nil {
		return fmt.Errorf("update user level: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserBalance выставляет баланс пользователя напрямую (административная операция).
func (r *PostgresRepository) UpdateUserBalance(ctx context.Context, userID int64, balance, frozen float64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET balance = $2, frozen_balance = $3 WHERE id = $1`,
		userID, toCents(balance), toCents(frozen),
	)
	if err != nil {
		return fmt.Errorf("update user balance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateLoginInfo обновляет адрес и время последнего входа пользователя.
func (r *PostgresRepository) UpdateLoginInfo(ctx context.Context, userID int64, ip, region string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET ip_address = $2, ip_region = $3, last_online = now() WHERE id = $1`,
		userID, ip, region,
	)
	if err != nil {
		return fmt.Errorf("update login info: %w", err)
	}
	return nil
}

// ResetDailyOrders сбрасывает дневной счётчик заказов пользователя.
func (r *PostgresRepository) ResetDailyOrders(ctx context.Context, userID int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET orders_completed_today = 0 WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("reset daily orders: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetAllDailyOrders сбрасывает дневные счётчики всех пользователей.
func (r *PostgresRepository) ResetAllDailyOrders(ctx context.Context) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET orders_completed_today = 0 WHERE orders_completed_today > 0`,
	)
	if err != nil {
		return 0, fmt.Errorf("reset all daily orders: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
