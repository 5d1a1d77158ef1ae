package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/grabmart-system/internal/model"
	"github.com/mmeshcher/grabmart-system/internal/repository"
)

func userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

type adminUserResponse struct {
	ID                      int64               `json:"id"`
	Username                string              `json:"username"`
	FullName                string              `json:"fullName,omitempty"`
	PhoneNumber             string              `json:"phoneNumber,omitempty"`
	Role                    string              `json:"role"`
	Balance                 float64             `json:"balance"`
	FrozenBalance           float64             `json:"frozenBalance"`
	Level                   int                 `json:"level"`
	OrdersCompletedToday    int                 `json:"ordersCompletedToday"`
	Status                  string              `json:"status"`
	IsOrderFrozen           bool                `json:"isOrderFrozen"`
	CustomDailyOrderLimit   *int                `json:"customDailyOrderLimit,omitempty"`
	CustomCommissionRate    *float64            `json:"customCommissionRate,omitempty"`
	CustomMinBalancePercent *float64            `json:"customMinBalancePercent,omitempty"`
	CustomMaxBalancePercent *float64            `json:"customMaxBalancePercent,omitempty"`
	CustomMaxOrderAmount    *float64            `json:"customMaxOrderAmount,omitempty"`
	CustomRiggedOrders      []model.RiggedOrder `json:"customRiggedOrders,omitempty"`
	ReferralCode            string              `json:"referralCode"`
	ReferredBy              *int64              `json:"referredBy,omitempty"`
	IPAddress               string              `json:"ipAddress,omitempty"`
	IPRegion                string              `json:"ipRegion,omitempty"`
	LastOnline              string              `json:"lastOnline,omitempty"`
	CreatedAt               string              `json:"createdAt"`
}

func toAdminUserResponse(u *model.User) adminUserResponse {
	resp := adminUserResponse{
		ID:                      u.ID,
		Username:                u.Username,
		FullName:                u.FullName,
		PhoneNumber:             u.PhoneNumber,
		Role:                    string(u.Role),
		Balance:                 u.Balance,
		FrozenBalance:           u.FrozenBalance,
		Level:                   u.Level,
		OrdersCompletedToday:    u.OrdersCompletedToday,
		Status:                  string(u.Status),
		IsOrderFrozen:           u.IsOrderFrozen,
		CustomDailyOrderLimit:   u.CustomDailyOrderLimit,
		CustomCommissionRate:    u.CustomCommissionRate,
		CustomMinBalancePercent: u.CustomMinBalancePercent,
		CustomMaxBalancePercent: u.CustomMaxBalancePercent,
		CustomMaxOrderAmount:    u.CustomMaxOrderAmount,
		CustomRiggedOrders:      u.CustomRiggedOrders,
		ReferralCode:            u.ReferralCode,
		ReferredBy:              u.ReferredBy,
		IPAddress:               u.IPAddress,
		IPRegion:                u.IPRegion,
		CreatedAt:               u.CreatedAt.Format(time.RFC3339),
	}
	if !u.LastOnline.IsZero() {
		resp.LastOnline = u.LastOnline.Format(time.RFC3339)
	}
	return resp
}

// ListUsers возвращает всех пользователей платформы.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]adminUserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toAdminUserResponse(&users[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type userPolicyRequest struct {
	DailyOrderLimit   *int                `json:"dailyOrderLimit"`
	CommissionRate    *float64            `json:"commissionRate"`
	MinBalancePercent *float64            `json:"minBalancePercent"`
	MaxBalancePercent *float64            `json:"maxBalancePercent"`
	MaxOrderAmount    *float64            `json:"maxOrderAmount"`
	RiggedOrders      []model.RiggedOrder `json:"riggedOrders"`
	OrderFrozen       bool                `json:"orderFrozen"`
}

// UpdateUserPolicy полностью заменяет индивидуальные переопределения политики.
func (h *Handler) UpdateUserPolicy(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req userPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err = h.service.UpdateUserPolicy(r.Context(), userID, repository.UserPolicy{
		DailyOrderLimit:   req.DailyOrderLimit,
		CommissionRate:    req.CommissionRate,
		MinBalancePercent: req.MinBalancePercent,
		MaxBalancePercent: req.MaxBalancePercent,
		MaxOrderAmount:    req.MaxOrderAmount,
		RiggedOrders:      req.RiggedOrders,
		OrderFrozen:       req.OrderFrozen,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update user policy error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type userStatusRequest struct {
	Status string `json:"status"`
}

// UpdateUserStatus блокирует или разблокирует учётную запись.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req userStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	status := model.UserStatus(req.Status)
	if status != model.UserStatusActive && status != model.UserStatusLocked {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.UpdateUserStatus(r.Context(), userID, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update user status error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type userLevelRequest struct {
	Level int `json:"level"`
}

// UpdateUserLevel изменяет уровень пользователя.
func (h *Handler) UpdateUserLevel(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req userLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Level < 1 {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.UpdateUserLevel(r.Context(), userID, req.Level); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update user level error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type userBalanceRequest struct {
	Balance float64 `json:"balance"`
	Frozen  float64 `json:"frozen"`
}

// UpdateUserBalance напрямую устанавливает баланс пользователя.
func (h *Handler) UpdateUserBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req userBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Balance < 0 || req.Frozen < 0 {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.UpdateUserBalance(r.Context(), userID, req.Balance, req.Frozen); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update user balance error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ResetUserOrders обнуляет дневной счётчик заказов пользователя.
func (h *Handler) ResetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.ResetDailyOrders(r.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("reset user orders error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type adminTransactionResponse struct {
	transactionResponse
	UserID int64 `json:"userId"`
}

// ListTransactions возвращает журнал операций всех пользователей.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ListTransactions(r.Context())
	if err != nil {
		h.logger.Error("list transactions error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]adminTransactionResponse, 0, len(txs))
	for _, t := range txs {
		resp = append(resp, adminTransactionResponse{
			transactionResponse: transactionResponse{
				ID:        t.ID,
				Type:      string(t.Type),
				Amount:    t.Amount,
				Status:    string(t.Status),
				Details:   t.Details,
				CreatedAt: t.CreatedAt.Format(time.RFC3339),
			},
			UserID: t.UserID,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type createTransactionRequest struct {
	UserID  int64   `json:"userId"`
	Type    string  `json:"type"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
	Details string  `json:"details"`
}

// CreateTransaction создаёт запись журнала операций вручную.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.UserID == 0 || req.Amount <= 0 {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	t := &model.Transaction{
		UserID:  req.UserID,
		Type:    model.TransactionType(req.Type),
		Amount:  req.Amount,
		Status:  model.TransactionStatus(req.Status),
		Details: req.Details,
	}
	if t.Status == "" {
		t.Status = model.TransactionStatusPending
	}

	if err := h.service.CreateTransaction(r.Context(), t); err != nil {
		h.logger.Error("create transaction error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// ApproveTransaction подтверждает заявку на пополнение или вывод средств.
func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	h.transitionTransaction(w, r, h.service.ApproveTransaction, "approve transaction error")
}

// RejectTransaction отклоняет заявку: замороженные средства возвращаются.
func (h *Handler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	h.transitionTransaction(w, r, h.service.RejectTransaction, "reject transaction error")
}

// DeleteTransaction удаляет запись журнала операций.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	h.transitionTransaction(w, r, h.service.DeleteTransaction, "delete transaction error")
}

func (h *Handler) transitionTransaction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, txID string) error, logMsg string) {
	txID := chi.URLParam(r, "txID")
	if txID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), txID); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error(logMsg, zap.Error(err), zap.String("txID", txID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type productRequest struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    float64 `json:"price"`
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Price <= 0 {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	p := &model.Product{
		Name:     req.Name,
		ImageURL: req.ImageURL,
		Price:    req.Price,
	}
	if err := h.service.CreateProduct(r.Context(), p); err != nil {
		h.logger.Error("create product error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(productResponse{
		ID:       p.ID,
		Name:     p.Name,
		ImageURL: p.ImageURL,
		Price:    p.Price,
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// UpdateProduct изменяет товар каталога.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if id == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Price <= 0 {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	err := h.service.UpdateProduct(r.Context(), &model.Product{
		ID:       id,
		Name:     req.Name,
		ImageURL: req.ImageURL,
		Price:    req.Price,
	})
	if err != nil {
		h.logger.Error("update product error", zap.Error(err), zap.String("productID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteProduct удаляет товар из каталога.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if id == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.logger.Error("delete product error", zap.Error(err), zap.String("productID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetSystemConfig возвращает текущую системную конфигурацию.
func (h *Handler) GetSystemConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.SystemConfig()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// UpdateSystemConfig заменяет системную конфигурацию.
func (h *Handler) UpdateSystemConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.SystemConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if cfg.DailyOrderLimit < 0 || cfg.CommissionRate < 0 ||
		cfg.MinBalancePercent < 0 || cfg.MaxBalancePercent < cfg.MinBalancePercent {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.UpdateSystemConfig(r.Context(), cfg); err != nil {
		h.logger.Error("update system config error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type levelConfigPayload struct {
	Level             int                 `json:"level"`
	Name              string              `json:"name"`
	DailyOrderLimit   *int                `json:"dailyOrderLimit,omitempty"`
	CommissionRate    *float64            `json:"commissionRate,omitempty"`
	MinBalancePercent *float64            `json:"minBalancePercent,omitempty"`
	MaxBalancePercent *float64            `json:"maxBalancePercent,omitempty"`
	RiggedOrders      []model.RiggedOrder `json:"riggedOrders,omitempty"`
}

// ListLevelConfigs возвращает конфигурации всех уровней.
func (h *Handler) ListLevelConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.ListLevelConfigs(r.Context())
	if err != nil {
		h.logger.Error("list level configs error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]levelConfigPayload, 0, len(configs))
	for _, lc := range configs {
		resp = append(resp, levelConfigPayload{
			Level:             lc.Level,
			Name:              lc.Name,
			DailyOrderLimit:   lc.DailyOrderLimit,
			CommissionRate:    lc.CommissionRate,
			MinBalancePercent: lc.MinBalancePercent,
			MaxBalancePercent: lc.MaxBalancePercent,
			RiggedOrders:      lc.RiggedOrders,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// UpsertLevelConfig создаёт или заменяет конфигурацию уровня.
func (h *Handler) UpsertLevelConfig(w http.ResponseWriter, r *http.Request) {
	var req levelConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Level < 1 || req.Name == "" {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	err := h.service.UpsertLevelConfig(r.Context(), &model.LevelConfig{
		Level:             req.Level,
		Name:              req.Name,
		DailyOrderLimit:   req.DailyOrderLimit,
		CommissionRate:    req.CommissionRate,
		MinBalancePercent: req.MinBalancePercent,
		MaxBalancePercent: req.MaxBalancePercent,
		RiggedOrders:      req.RiggedOrders,
	})
	if err != nil {
		h.logger.Error("upsert level config error", zap.Error(err), zap.Int("level", req.Level))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteLevelConfig удаляет конфигурацию уровня.
func (h *Handler) DeleteLevelConfig(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteLevelConfig(r.Context(), level); err != nil {
		h.logger.Error("delete level config error", zap.Error(err), zap.Int("level", level))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type codeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Status    string `json:"status"`
	UsedBy    *int64 `json:"usedBy,omitempty"`
	UsedAt    string `json:"usedAt,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toCodeResponse(rc *model.RegistrationCode) codeResponse {
	resp := codeResponse{
		ID:        rc.ID,
		Code:      rc.Code,
		Status:    string(rc.Status),
		UsedBy:    rc.UsedBy,
		CreatedAt: rc.CreatedAt.Format(time.RFC3339),
	}
	if rc.UsedAt != nil {
		resp.UsedAt = rc.UsedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateRegistrationCode генерирует новый пригласительный код.
func (h *Handler) CreateRegistrationCode(w http.ResponseWriter, r *http.Request) {
	rc, err := h.service.CreateRegistrationCode(r.Context())
	if err != nil {
		h.logger.Error("create registration code error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toCodeResponse(rc)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// ExpireRegistrationCode помечает пригласительный код просроченным.
func (h *Handler) ExpireRegistrationCode(w http.ResponseWriter, r *http.Request) {
	h.codeAction(w, r, h.service.ExpireRegistrationCode, "expire registration code error")
}

// DeleteRegistrationCode удаляет пригласительный код.
func (h *Handler) DeleteRegistrationCode(w http.ResponseWriter, r *http.Request) {
	h.codeAction(w, r, h.service.DeleteRegistrationCode, "delete registration code error")
}

func (h *Handler) codeAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error, logMsg string) {
	id := chi.URLParam(r, "codeID")
	if id == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error(logMsg, zap.Error(err), zap.String("codeID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListRegistrationCodes возвращает все пригласительные коды.
func (h *Handler) ListRegistrationCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ListRegistrationCodes(r.Context())
	if err != nil {
		h.logger.Error("list registration codes error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]codeResponse, 0, len(codes))
	for i := range codes {
		resp = append(resp, toCodeResponse(&codes[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
