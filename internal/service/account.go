package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/mmeshcher/grabmart-system/internal/model"
)

// GetBalance возвращает доступный и замороженный баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (*model.Balance, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Balance{
		Current: u.Balance,
		Frozen:  u.FrozenBalance,
	}, nil
}

// GetTransactionsByUser возвращает журнал операций пользователя.
func (s *Service) GetTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.repo.GetTransactionsByUser(ctx, userID)
}

// RequestDeposit создаёт заявку на пополнение баланса. Сумма зачисляется
// только после подтверждения администратором.
func (s *Service) RequestDeposit(ctx context.Context, userID int64, amount float64, proof string) error {
	if amount <= 0 {
		return errors.New("deposit amount must be positive")
	}
	_, err := s.repo.CreateDepositRequest(ctx, userID, amount, proof)
	return err
}

// RequestWithdraw создаёт заявку на вывод средств: сумма замораживается до
// решения администратора. Требуется платёжный пароль.
func (s *Service) RequestWithdraw(ctx context.Context, userID int64, amount float64, txPassword string) error {
	if amount <= 0 {
		return errors.New("withdraw amount must be positive")
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	hashed := hashPassword(u.Username, txPassword)
	if subtle.ConstantTimeCompare(hashed, u.TransactionPasswordHash) != 1 {
		return ErrWrongTransactionPassword
	}

	_, err = s.repo.CreateWithdrawRequest(ctx, userID, amount)
	return err
}
