// Package service реализует бизнес-логику сервиса грабмарт: аутентификацию,
// выдачу и подтверждение заказов, заявки на пополнение и вывод средств.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/grabmart-system/internal/ipinfo"
	"github.com/mmeshcher/grabmart-system/internal/model"
	"github.com/mmeshcher/grabmart-system/internal/repository"
	"github.com/mmeshcher/grabmart-system/internal/watch"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	RegisterUser(ctx context.Context, u *model.User, codeID string) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserPolicy(ctx context.Context, userID int64, p repository.UserPolicy) error
	UpdateUserStatus(ctx context.Context, userID int64, status model.UserStatus) error
	UpdateUserLevel(ctx context.Context, userID int64, level int) error
	UpdateUserBalance(ctx context.Context, userID int64, balance, frozen float64) error
	UpdateLoginInfo(ctx context.Context, userID int64, ip, region string) error
	ResetDailyOrders(ctx context.Context, userID int64) error
	ResetAllDailyOrders(ctx context.Context) (int64, error)

	CreateGrantedOrder(ctx context.Context, o *model.Order, limit int) error
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	SettleOrder(ctx context.Context, orderID string) (bool, error)

	CreateDepositRequest(ctx context.Context, userID int64, amount float64, proof string) (string, error)
	CreateWithdrawRequest(ctx context.Context, userID int64, amount float64) (string, error)
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	ApproveTransaction(ctx context.Context, txID string) error
	RejectTransaction(ctx context.Context, txID string) error
	DeleteTransaction(ctx context.Context, txID string) error

	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]model.Product, error)

	GetSystemConfig(ctx context.Context) (model.SystemConfig, error)
	UpdateSystemConfig(ctx context.Context, cfg model.SystemConfig) error
	ListLevelConfigs(ctx context.Context) ([]model.LevelConfig, error)
	UpsertLevelConfig(ctx context.Context, lc *model.LevelConfig) error
	DeleteLevelConfig(ctx context.Context, level int) error

	CreateRegistrationCode(ctx context.Context, code string) (*model.RegistrationCode, error)
	GetUnusedCode(ctx context.Context, code string) (*model.RegistrationCode, error)
	ExpireCode(ctx context.Context, id string) error
	DeleteCode(ctx context.Context, id string) error
	ListCodes(ctx context.Context) ([]model.RegistrationCode, error)
}

// Service содержит бизнес-логику сервиса грабмарт.
type Service struct {
	repo     Repository
	ipClient *ipinfo.Client
	logger   *zap.Logger

	// Кэш политики, обновляемый наблюдателем изменений.
	policyMu     sync.RWMutex
	systemCfg    model.SystemConfig
	levelConfigs []model.LevelConfig
}

// NewService создаёт новый сервис с указанным репозиторием и клиентом геолокации.
func NewService(repo Repository, ipClient *ipinfo.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		ipClient: ipClient,
		logger:   logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// LoadPolicy загружает системную конфигурацию и конфигурации уровней в кэш.
func (s *Service) LoadPolicy(ctx context.Context) error {
	sysCfg, err := s.repo.GetSystemConfig(ctx)
	if err != nil {
		return fmt.Errorf("load system config: %w", err)
	}

	levelCfgs, err := s.repo.ListLevelConfigs(ctx)
	if err != nil {
		return fmt.Errorf("load level configs: %w", err)
	}

	s.policyMu.Lock()
	s.systemCfg = sysCfg
	s.levelConfigs = levelCfgs
	s.policyMu.Unlock()

	return nil
}

// Subscribe регистрирует обработчики наблюдателя, поддерживающие кэш
// политики в актуальном состоянии.
func (s *Service) Subscribe(w *watch.Watcher) {
	refresh := func(watch.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.LoadPolicy(ctx); err != nil {
			s.logger.Warn("policy refresh failed", zap.Error(err))
		}
	}

	w.OnChange("system_config", refresh)
	w.OnChange("level_configs", refresh)
}

// SystemConfig возвращает текущую системную конфигурацию из кэша.
func (s *Service) SystemConfig() model.SystemConfig {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()
	return s.systemCfg
}

// levelConfig возвращает конфигурацию указанного уровня. Если уровень не
// настроен, используется первый настроенный уровень; nil — если уровней нет.
func (s *Service) levelConfig(level int) *model.LevelConfig {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()

	for i := range s.levelConfigs {
		if s.levelConfigs[i].Level == level {
			lc := s.levelConfigs[i]
			return &lc
		}
	}

	if len(s.levelConfigs) > 0 {
		lc := s.levelConfigs[0]
		return &lc
	}

	return nil
}

// StartDailyReset запускает фоновый процесс, сбрасывающий дневные счётчики
// заказов в полночь.
func (s *Service) StartDailyReset(ctx context.Context) {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)

			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			n, err := s.repo.ResetAllDailyOrders(ctx)
			if err != nil {
				s.logger.Error("daily orders reset failed", zap.Error(err))
				continue
			}
			s.logger.Info("daily orders reset", zap.Int64("users", n))
		}
	}()
}
