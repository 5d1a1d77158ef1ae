package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/mmeshcher/grabmart-system/internal/model"
	"github.com/mmeshcher/grabmart-system/internal/repository"
)

// Административные операции. Тонкие обёртки над репозиторием; обновления
// конфигурации дополнительно освежают кэш политики.

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUserPolicy перезаписывает индивидуальные переопределения политики пользователя.
func (s *Service) UpdateUserPolicy(ctx context.Context, userID int64, p repository.UserPolicy) error {
	return s.repo.UpdateUserPolicy(ctx, userID, p)
}

// UpdateUserStatus изменяет состояние учётной записи.
func (s *Service) UpdateUserStatus(ctx context.Context, userID int64, status model.UserStatus) error {
	return s.repo.UpdateUserStatus(ctx, userID, status)
}

// UpdateUserLevel изменяет уровень пользователя.
func (s *Service) UpdateUserLevel(ctx context.Context, userID int64, level int) error {
	return s.repo.UpdateUserLevel(ctx, userID, level)
}

// UpdateUserBalance выставляет баланс пользователя напрямую.
func (s *Service) UpdateUserBalance(ctx context.Context, userID int64, balance, frozen float64) error {
	return s.repo.UpdateUserBalance(ctx, userID, balance, frozen)
}

// ResetDailyOrders сбрасывает дневной счётчик заказов пользователя.
func (s *Service) ResetDailyOrders(ctx context.Context, userID int64) error {
	return s.repo.ResetDailyOrders(ctx, userID)
}

// ListTransactions возвращает журнал операций всех пользователей.
func (s *Service) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// CreateTransaction добавляет произвольную запись журнала.
func (s *Service) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	return s.repo.CreateTransaction(ctx, t)
}

// ApproveTransaction подтверждает заявку на пополнение или вывод.
func (s *Service) ApproveTransaction(ctx context.Context, txID string) error {
	return s.repo.ApproveTransaction(ctx, txID)
}

// RejectTransaction отклоняет заявку на пополнение или вывод.
func (s *Service) RejectTransaction(ctx context.Context, txID string) error {
	return s.repo.RejectTransaction(ctx, txID)
}

// DeleteTransaction удаляет запись журнала.
func (s *Service) DeleteTransaction(ctx context.Context, txID string) error {
	return s.repo.DeleteTransaction(ctx, txID)
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) error {
	return s.repo.CreateProduct(ctx, p)
}

// UpdateProduct обновляет товар каталога.
func (s *Service) UpdateProduct(ctx context.Context, p *model.Product) error {
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// UpdateSystemConfig перезаписывает общесистемную политику и кэш.
func (s *Service) UpdateSystemConfig(ctx context.Context, cfg model.SystemConfig) error {
	if err := s.repo.UpdateSystemConfig(ctx, cfg); err != nil {
		return err
	}
	return s.LoadPolicy(ctx)
}

// ListLevelConfigs возвращает конфигурации уровней.
func (s *Service) ListLevelConfigs(ctx context.Context) ([]model.LevelConfig, error) {
	return s.repo.ListLevelConfigs(ctx)
}

// UpsertLevelConfig создаёт или обновляет конфигурацию уровня и освежает кэш.
func (s *Service) UpsertLevelConfig(ctx context.Context, lc *model.LevelConfig) error {
	if err := s.repo.UpsertLevelConfig(ctx, lc); err != nil {
		return err
	}
	return s.LoadPolicy(ctx)
}

// DeleteLevelConfig удаляет конфигурацию уровня и освежает кэш.
func (s *Service) DeleteLevelConfig(ctx context.Context, level int) error {
	if err := s.repo.DeleteLevelConfig(ctx, level); err != nil {
		return err
	}
	return s.LoadPolicy(ctx)
}

// CreateRegistrationCode генерирует и сохраняет новый шестизначный
// пригласительный код.
func (s *Service) CreateRegistrationCode(ctx context.Context) (*model.RegistrationCode, error) {
	code := fmt.Sprintf("%06d", 100000+rand.IntN(900000))
	return s.repo.CreateRegistrationCode(ctx, code)
}

// ExpireRegistrationCode помечает пригласительный код просроченным.
func (s *Service) ExpireRegistrationCode(ctx context.Context, id string) error {
	return s.repo.ExpireCode(ctx, id)
}

// DeleteRegistrationCode удаляет пригласительный код.
func (s *Service) DeleteRegistrationCode(ctx context.Context, id string) error {
	return s.repo.DeleteCode(ctx, id)
}

// ListRegistrationCodes возвращает все пригласительные коды.
func (s *Service) ListRegistrationCodes(ctx context.Context) ([]model.RegistrationCode, error) {
	return s.repo.ListCodes(ctx)
}
