package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/mmeshcher/grabmart-system/internal/model"
	"github.com/mmeshcher/grabmart-system/internal/repository"
)

// ErrInvalidCredentials возвращается при неверном логине или пароле.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserLocked возвращается при входе в заблокированную учётную запись.
	ErrUserLocked = errors.New("account is locked")
	// ErrMaintenance возвращается при входе не-администратора в режиме обслуживания.
	ErrMaintenance = errors.New("system under maintenance")
	// ErrInvalidInviteCode возвращается при регистрации с неизвестным или использованным кодом.
	ErrInvalidInviteCode = errors.New("invalid invite code")
	// ErrWrongTransactionPassword возвращается при неверном платёжном пароле.
	ErrWrongTransactionPassword = errors.New("wrong transaction password")
)

// RegisterRequest содержит данные регистрации нового пользователя.
type RegisterRequest struct {
	Username     string
	Password     string
	FullName     string
	PhoneNumber  string
	InviteCode   string
	ReferralCode string
	IP           string
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// RegisterUser регистрирует нового пользователя по пригласительному коду.
func (s *Service) RegisterUser(ctx context.Context, req RegisterRequest) (int64, error) {
	code, err := s.repo.GetUnusedCode(ctx, req.InviteCode)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return 0, ErrInvalidInviteCode
		}
		return 0, fmt.Errorf("check invite code: %w", err)
	}

	var referredBy *int64
	if req.ReferralCode != "" {
		ref, err := s.repo.GetUserByReferralCode(ctx, req.ReferralCode)
		if err == nil {
			referredBy = &ref.ID
		}
	}

	hashed := hashPassword(req.Username, req.Password)

	u := &model.User{
		Username: req.Username,
		// Платёжный пароль при регистрации совпадает с основным.
		PasswordHash:            hashed,
		TransactionPasswordHash: hashed,
		FullName:                req.FullName,
		PhoneNumber:             req.PhoneNumber,
		Role:                    model.RoleUser,
		Level:                   1,
		ReferralCode:            fmt.Sprintf("REF%04d", rand.IntN(10000)),
		ReferredBy:              referredBy,
		IPAddress:               req.IP,
		IPRegion:                s.lookupRegion(ctx, req.IP),
	}

	id, err := s.repo.RegisterUser(ctx, u, code.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		if errors.Is(err, repository.ErrCodeNotFound) {
			return 0, ErrInvalidInviteCode
		}
		return 0, err
	}

	return id, nil
}

// AuthenticateUser проверяет логин и пароль и возвращает пользователя.
// В режиме обслуживания вход разрешён только администраторам.
func (s *Service) AuthenticateUser(ctx context.Context, login, password, ip string) (*model.User, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hashed := hashPassword(u.Username, password)
	if subtle.ConstantTimeCompare(hashed, u.PasswordHash) != 1 {
		return nil, ErrInvalidCredentials
	}

	if u.Status == model.UserStatusLocked {
		return nil, ErrUserLocked
	}

	if s.SystemConfig().MaintenanceMode && u.Role != model.RoleAdmin {
		return nil, ErrMaintenance
	}

	if err := s.repo.UpdateLoginInfo(ctx, u.ID, ip, s.lookupRegion(ctx, ip)); err != nil {
		s.logger.Warn("update login info failed", zap.Int64("userID", u.ID), zap.Error(err))
	}

	return u, nil
}

func (s *Service) lookupRegion(ctx context.Context, ip string) string {
	if s.ipClient == nil || ip == "" {
		return ""
	}

	info, err := s.ipClient.Lookup(ctx, ip)
	if err != nil {
		return ""
	}

	return info.Region
}
