package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/mmeshcher/grabmart-system/internal/model"
	"github.com/mmeshcher/grabmart-system/internal/repository"
	"github.com/mmeshcher/grabmart-system/internal/rules"
)

// ErrOrderFrozen возвращается, если выдача заказов пользователю заморожена.
var (
	ErrOrderFrozen = errors.New("order function frozen")
	// ErrDailyLimitReached возвращается, если дневной лимит заказов исчерпан.
	ErrDailyLimitReached = errors.New("daily order limit reached")
	// ErrInsufficientBalance возвращается, если баланса недостаточно для выдачи заказа.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Минимальный баланс для выдачи любого заказа.
const minGrabBalance = 100

// Запасные наименования и изображения товаров для генерации заказа при
// пустом каталоге.
var fallbackProductNames = []string{
	"Wireless Earbuds Pro",
	"Smart Watch Series X",
	"Portable Power Bank 20000mAh",
	"Bluetooth Speaker Mini",
	"4K Action Camera",
	"Ergonomic Office Chair",
	"Mechanical Keyboard RGB",
	"Noise Cancelling Headphones",
	"Robot Vacuum Cleaner",
	"Electric Kettle 1.7L",
}

var fallbackProductImages = []string{
	"https://picsum.photos/300/300?random=1",
	"https://picsum.photos/300/300?random=2",
	"https://picsum.photos/300/300?random=3",
	"https://picsum.photos/300/300?random=4",
	"https://picsum.photos/300/300?random=5",
	"https://picsum.photos/300/300?random=6",
	"https://picsum.photos/300/300?random=7",
	"https://picsum.photos/300/300?random=8",
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GrabOrder выдаёт пользователю новый заказ в статусе PENDING.
//
// Подставное правило для следующего порядкового номера (правило пользователя
// приоритетнее правила уровня) фиксирует сумму и комиссию. Иначе заказ
// строится из случайного товара каталога, а при пустом каталоге — из
// случайной доли баланса в пределах [minPct, maxPct] с ограничением
// MaxOrderAmount. Денежные значения округляются до центов в момент расчёта.
func (s *Service) GrabOrder(ctx context.Context, userID int64) (*model.Order, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if u.IsOrderFrozen {
		return nil, ErrOrderFrozen
	}

	levelCfg := s.levelConfig(u.Level)
	eff := rules.Resolve(u, levelCfg, s.SystemConfig())

	if u.OrdersCompletedToday >= eff.DailyOrderLimit {
		return nil, ErrDailyLimitReached
	}
	if u.Balance < minGrabBalance {
		return nil, ErrInsufficientBalance
	}

	nextIndex := u.OrdersCompletedToday + 1

	var (
		amount, commission float64
		name, image        string
	)

	rule, src := rules.FindRigged(u, levelCfg, nextIndex)
	if src != rules.SourceRandom {
		amount = rule.Amount
		commission = rule.Amount * rule.CommissionRate
		name = rule.ProductName
		image = rule.ProductImage
	} else {
		products, err := s.repo.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}

		if len(products) > 0 {
			p := products[rand.IntN(len(products))]
			name = p.Name
			image = p.ImageURL
			amount = p.Price
			commission = round2(amount * eff.CommissionRate)
		} else {
			pct := eff.MinBalancePercent + rand.Float64()*(eff.MaxBalancePercent-eff.MinBalancePercent)
			amount = round2(u.Balance * pct)
			if eff.MaxOrderAmount != nil && amount > *eff.MaxOrderAmount {
				amount = *eff.MaxOrderAmount
			}
			commission = round2(amount * eff.CommissionRate)
			name = fallbackProductNames[rand.IntN(len(fallbackProductNames))]
			image = fallbackProductImages[rand.IntN(len(fallbackProductImages))]
		}
	}

	o := &model.Order{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		ProductName:  name,
		ProductImage: image,
		Amount:       amount,
		Commission:   commission,
		Status:       model.OrderStatusPending,
	}

	if err := s.repo.CreateGrantedOrder(ctx, o, eff.DailyOrderLimit); err != nil {
		if errors.Is(err, repository.ErrDailyLimitReached) {
			return nil, ErrDailyLimitReached
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	return o, nil
}

// ConfirmOrder подтверждает заказ пользователя: зачисляет комиссию,
// увеличивает дневной счётчик и записывает операцию COMMISSION.
// Повторное подтверждение завершённого заказа — no-op.
func (s *Service) ConfirmOrder(ctx context.Context, userID int64, orderID string) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		return repository.ErrOrderNotFound
	}

	_, err = s.repo.SettleOrder(ctx, orderID)
	return err
}

// CancelOrder удаляет невыполненный заказ пользователя. Отмена
// несуществующего заказа не является ошибкой.
func (s *Service) CancelOrder(ctx context.Context, userID int64, orderID string) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil
		}
		return err
	}
	if o.UserID != userID {
		return nil
	}

	return s.repo.DeleteOrder(ctx, orderID)
}

// GetOrdersByUser возвращает список заказов пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// ListProducts возвращает каталог товаров.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}
