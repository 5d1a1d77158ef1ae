package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/grabmart-system/internal/model"
)

// CreateProduct добавляет товар в каталог.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, name, image_url, price) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.ImageURL, toCents(p.Price),
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateProduct обновляет товар каталога.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $2, image_url = $3, price = $4 WHERE id = $1`,
		p.ID, p.Name, p.ImageURL, toCents(p.Price),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// DeleteProduct удаляет товар из каталога.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// ListProducts возвращает каталог товаров.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, image_url, price, created_at FROM products ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		var (
			p      model.Product
			priceC int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.ImageURL, &priceC, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Price = fromCents(priceC)
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetSystemConfig возвращает общесистемную политику.
func (r *PostgresRepository) GetSystemConfig(ctx context.Context) (model.SystemConfig, error) {
	var cfg model.SystemConfig
	err := r.pool.QueryRow(ctx,
		`SELECT daily_order_limit, commission_rate, min_balance_percent, max_balance_percent, maintenance_mode
		 FROM system_config WHERE id = 1`,
	).Scan(&cfg.DailyOrderLimit, &cfg.CommissionRate, &cfg.MinBalancePercent, &cfg.MaxBalancePercent, &cfg.MaintenanceMode)
	if err != nil {
		return model.SystemConfig{}, fmt.Errorf("get system config: %w", err)
	}
	return cfg, nil
}

// UpdateSystemConfig перезаписывает общесистемную политику.
func (r *PostgresRepository) UpdateSystemConfig(ctx context.Context, cfg model.SystemConfig) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE system_config SET daily_order_limit = $1, commission_rate = $2,
			min_balance_percent = $3, max_balance_percent = $4, maintenance_mode = $5
		 WHERE id = 1`,
		cfg.DailyOrderLimit, cfg.CommissionRate, cfg.MinBalancePercent, cfg.MaxBalancePercent, cfg.MaintenanceMode,
	)
	if err != nil {
		return fmt.Errorf("update system config: %w", err)
	}
	return nil
}

// ListLevelConfigs возвращает конфигурации уровней по возрастанию уровня.
func (r *PostgresRepository) ListLevelConfigs(ctx context.Context) ([]model.LevelConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT level, name, daily_order_limit, commission_rate, min_balance_percent, max_balance_percent, specific_orders
		 FROM level_configs ORDER BY level`,
	)
	if err != nil {
		return nil, fmt.Errorf("select level configs: %w", err)
	}
	defer rows.Close()

	var res []model.LevelConfig
	for rows.Next() {
		var (
			lc         model.LevelConfig
			riggedJSON []byte
		)
		err := rows.Scan(&lc.Level, &lc.Name, &lc.DailyOrderLimit, &lc.CommissionRate,
			&lc.MinBalancePercent, &lc.MaxBalancePercent, &riggedJSON)
		if err != nil {
			return nil, fmt.Errorf("scan level config: %w", err)
		}
		if len(riggedJSON) > 0 {
			if err := json.Unmarshal(riggedJSON, &lc.RiggedOrders); err != nil {
				return nil, fmt.Errorf("unmarshal specific orders: %w", err)
			}
		}
		res = append(res, lc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpsertLevelConfig создаёт или обновляет конфигурацию уровня.
func (r *PostgresRepository) UpsertLevelConfig(ctx context.Context, lc *model.LevelConfig) error {
	rigged := lc.RiggedOrders
	if rigged == nil {
		rigged = []model.RiggedOrder{}
	}
	riggedJSON, err := json.Marshal(rigged)
	if err != nil {
		return fmt.Errorf("marshal specific orders: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO level_configs (level, name, daily_order_limit, commission_rate, min_balance_percent, max_balance_percent, specific_orders)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (level) DO UPDATE SET
			name = EXCLUDED.name,
			daily_order_limit = EXCLUDED.daily_order_limit,
			commission_rate = EXCLUDED.commission_rate,
			min_balance_percent = EXCLUDED.min_balance_percent,
			max_balance_percent = EXCLUDED.max_balance_percent,
			specific_orders = EXCLUDED.specific_orders`,
		lc.Level, lc.Name, lc.DailyOrderLimit, lc.CommissionRate,
		lc.MinBalancePercent, lc.MaxBalancePercent, riggedJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert level config: %w", err)
	}

	return nil
}

// DeleteLevelConfig удаляет конфигурацию уровня.
func (r *PostgresRepository) DeleteLevelConfig(ctx context.Context, level int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM level_configs WHERE level = $1`, level)
	if err != nil {
		return fmt.Errorf("delete level config: %w", err)
	}
	return nil
}

// CreateRegistrationCode сохраняет новый пригласительный код.
func (r *PostgresRepository) CreateRegistrationCode(ctx context.Context, code string) (*model.RegistrationCode, error) {
	rc := &model.RegistrationCode{
		ID:     uuid.NewString(),
		Code:   code,
		Status: model.CodeStatusUnused,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO registration_codes (id, code, status) VALUES ($1, $2, $3) RETURNING created_at`,
		rc.ID, rc.Code, string(rc.Status),
	).Scan(&rc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("code %s already issued", code)
		}
		return nil, fmt.Errorf("insert registration code: %w", err)
	}

	return rc, nil
}

// GetUnusedCode возвращает неиспользованный пригласительный код по значению.
func (r *PostgresRepository) GetUnusedCode(ctx context.Context, code string) (*model.RegistrationCode, error) {
	var rc model.RegistrationCode
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, status, used_by, used_at, created_at
		 FROM registration_codes WHERE code = $1 AND status = $2`,
		code, string(model.CodeStatusUnused),
	).Scan(&rc.ID, &rc.Code, &status, &rc.UsedBy, &rc.UsedAt, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("get registration code: %w", err)
	}
	rc.Status = model.CodeStatus(status)
	return &rc, nil
}

// ExpireCode помечает пригласительный код просроченным.
func (r *PostgresRepository) ExpireCode(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE registration_codes SET status = $2 WHERE id = $1`,
		id, string(model.CodeStatusExpired),
	)
	if err != nil {
		return fmt.Errorf("expire registration code: %w", err)
	}
	return nil
}

// DeleteCode удаляет пригласительный код.
func (r *PostgresRepository) DeleteCode(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM registration_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration code: %w", err)
	}
	return nil
}

// ListCodes возвращает все пригласительные коды, новые первыми.
func (r *PostgresRepository) ListCodes(ctx context.Context) ([]model.RegistrationCode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, status, used_by, used_at, created_at
		 FROM registration_codes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select registration codes: %w", err)
	}
	defer rows.Close()

	var res []model.RegistrationCode
	for rows.Next() {
		var (
			rc     model.RegistrationCode
			status string
		)
		if err := rows.Scan(&rc.ID, &rc.Code, &status, &rc.UsedBy, &rc.UsedAt, &rc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration code: %w", err)
		}
		rc.Status = model.CodeStatus(status)
		res = append(res, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
