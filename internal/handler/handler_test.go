package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/grabmart-system/internal/middleware"
	"github.com/mmeshcher/grabmart-system/internal/model"
	"github.com/mmeshcher/grabmart-system/internal/repository"
	"github.com/mmeshcher/grabmart-system/internal/service"
)

type stubService struct {
	registerUserID int64
	registerErr    error

	authUser *model.User
	authErr  error

	grabResp *model.Order
	grabErr  error

	confirmErr error
	cancelErr  error

	ordersResp []model.Order
	ordersErr  error

	balanceResp *model.Balance
	balanceErr  error

	transactionsResp []model.Transaction

	depositErr  error
	withdrawErr error

	productsResp []model.Product

	usersResp []model.User
	sysCfg    model.SystemConfig
	levels    []model.LevelConfig
	codesResp []model.RegistrationCode
	codeResp  *model.RegistrationCode
	adminErr  error
}

func (s *stubService) RegisterUser(ctx context.Context, req service.RegisterRequest) (int64, error) {
	return s.registerUserID, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, login, password, ip string) (*model.User, error) {
	return s.authUser, s.authErr
}

func (s *stubService) GrabOrder(ctx context.Context, userID int64) (*model.Order, error) {
	return s.grabResp, s.grabErr
}

func (s *stubService) ConfirmOrder(ctx context.Context, userID int64, orderID string) error {
	return s.confirmErr
}

func (s *stubService) CancelOrder(ctx context.Context, userID int64, orderID string) error {
	return s.cancelErr
}

func (s *stubService) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.ordersResp, s.ordersErr
}

func (s *stubService) GetBalance(ctx context.Context, userID int64) (*model.Balance, error) {
	return s.balanceResp, s.balanceErr
}

func (s *stubService) GetTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.transactionsResp, nil
}

func (s *stubService) RequestDeposit(ctx context.Context, userID int64, amount float64, proof string) error {
	return s.depositErr
}

func (s *stubService) RequestWithdraw(ctx context.Context, userID int64, amount float64, txPassword string) error {
	return s.withdrawErr
}

func (s *stubService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productsResp, nil
}

func (s *stubService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.usersResp, s.adminErr
}

func (s *stubService) UpdateUserPolicy(ctx context.Context, userID int64, p repository.UserPolicy) error {
	return s.adminErr
}

func (s *stubService) UpdateUserStatus(ctx context.Context, userID int64, status model.UserStatus) error {
	return s.adminErr
}

func (s *stubService) UpdateUserLevel(ctx context.Context, userID int64, level int) error {
	return s.adminErr
}

func (s *stubService) UpdateUserBalance(ctx context.Context, userID int64, balance, frozen float64) error {
	return s.adminErr
}

func (s *stubService) ResetDailyOrders(ctx context.Context, userID int64) error {
	return s.adminErr
}

func (s *stubService) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.transactionsResp, s.adminErr
}

func (s *stubService) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	return s.adminErr
}

func (s *stubService) ApproveTransaction(ctx context.Context, txID string) error {
	return s.adminErr
}

func (s *stubService) RejectTransaction(ctx context.Context, txID string) error {
	return s.adminErr
}

func (s *stubService) DeleteTransaction(ctx context.Context, txID string) error {
	return s.adminErr
}

func (s *stubService) CreateProduct(ctx context.Context, p *model.Product) error {
	return s.adminErr
}

func (s *stubService) UpdateProduct(ctx context.Context, p *model.Product) error {
	return s.adminErr
}

func (s *stubService) DeleteProduct(ctx context.Context, id string) error {
	return s.adminErr
}

func (s *stubService) SystemConfig() model.SystemConfig {
	return s.sysCfg
}

func (s *stubService) UpdateSystemConfig(ctx context.Context, cfg model.SystemConfig) error {
	return s.adminErr
}

func (s *stubService) ListLevelConfigs(ctx context.Context) ([]model.LevelConfig, error) {
	return s.levels, s.adminErr
}

func (s *stubService) UpsertLevelConfig(ctx context.Context, lc *model.LevelConfig) error {
	return s.adminErr
}

func (s *stubService) DeleteLevelConfig(ctx context.Context, level int) error {
	return s.adminErr
}

func (s *stubService) CreateRegistrationCode(ctx context.Context) (*model.RegistrationCode, error) {
	return s.codeResp, s.adminErr
}

func (s *stubService) ExpireRegistrationCode(ctx context.Context, id string) error {
	return s.adminErr
}

func (s *stubService) DeleteRegistrationCode(ctx context.Context, id string) error {
	return s.adminErr
}

func (s *stubService) ListRegistrationCodes(ctx context.Context) ([]model.RegistrationCode, error) {
	return s.codesResp, s.adminErr
}

func newTestHandler(t *testing.T, svc Service) (*Handler, *middleware.AuthMiddleware) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth), auth
}

// authCookie возвращает cookie авторизации для указанного пользователя.
func authCookie(auth *middleware.AuthMiddleware, userID int64, role string) *http.Cookie {
	rec := httptest.NewRecorder()
	auth.SetAuthCookie(rec, userID, role)
	return rec.Result().Cookies()[0]
}

func doRequest(t *testing.T, h *Handler, cookie *http.Cookie, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func TestRegister_Success(t *testing.T) {
	svc := &stubService{registerUserID: 42}
	h, _ := newTestHandler(t, svc)

	res := doRequest(t, h, nil, http.MethodPost, "/api/user/register", registerRequest{
		Username:   "newuser",
		Password:   "pass",
		InviteCode: "123456",
	})
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if len(res.Cookies()) == 0 {
		t.Fatalf("auth cookie must be set after registration")
	}
}

func TestRegister_InvalidInviteCode(t *testing.T) {
	svc := &stubService{registerErr: service.ErrInvalidInviteCode}
	h, _ := newTestHandler(t, svc)

	res := doRequest(t, h, nil, http.MethodPost, "/api/user/register", registerRequest{
		Username:   "newuser",
		Password:   "pass",
		InviteCode: "999999",
	})
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestRegister_BadInput(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{})

	tests := []struct {
		name string
		req  registerRequest
		want int
	}{
		{
			name: "short username",
			req:  registerRequest{Username: "ab", Password: "pass", InviteCode: "123456"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed invite code",
			req:  registerRequest{Username: "newuser", Password: "pass", InviteCode: "12345"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad phone",
			req:  registerRequest{Username: "newuser", Password: "pass", InviteCode: "123456", PhoneNumber: "abc"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "empty password",
			req:  registerRequest{Username: "newuser", InviteCode: "123456"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := doRequest(t, h, nil, http.MethodPost, "/api/user/register", tt.req)
			defer res.Body.Close()

			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestRegister_Conflict(t *testing.T) {
	svc := &stubService{registerErr: repository.ErrUserExists}
	h, _ := newTestHandler(t, svc)

	res := doRequest(t, h, nil, http.MethodPost, "/api/user/register", registerRequest{
		Username:   "taken",
		Password:   "pass",
		InviteCode: "123456",
	})
	defer res.Body.Close()

	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestLogin_Success(t *testing.T) {
	svc := &stubService{
		authUser: &model.User{ID: 7, Username: "alice", Role: model.RoleUser, Level: 2},
	}
	h, _ := newTestHandler(t, svc)

	res := doRequest(t, h, nil, http.MethodPost, "/api/user/login", loginRequest{
		Login:    "alice",
		Password: "pass",
	})
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var info userInfoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.ID != 7 || info.Role != "USER" || info.Level != 2 {
		t.Fatalf("unexpected user info: %+v", info)
	}
	if len(res.Cookies()) == 0 {
		t.Fatalf("auth cookie must be set after login")
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked account", service.ErrUserLocked, http.StatusLocked},
		{"maintenance", service.ErrMaintenance, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &stubService{authErr: tt.err})

			res := doRequest(t, h, nil, http.MethodPost, "/api/user/login", loginRequest{
				Login:    "alice",
				Password: "pass",
			})
			defer res.Body.Close()

			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestGrabOrder_Success(t *testing.T) {
	svc := &stubService{
		grabResp: &model.Order{
			ID:          "ord-1",
			UserID:      7,
			ProductName: "Kettle",
			Amount:      250,
			Commission:  5,
			Status:      model.OrderStatusPending,
		},
	}
	h, auth := newTestHandler(t, svc)
	cookie := authCookie(auth, 7, "USER")

	res := doRequest(t, h, cookie, http.MethodPost, "/api/user/orders/grab", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var o orderResponse
	if err := json.NewDecoder(res.Body).Decode(&o); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if o.ID != "ord-1" || o.Amount != 250 || o.Commission != 5 || o.Status != "PENDING" {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestGrabOrder_Unauthorized(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{})

	res := doRequest(t, h, nil, http.MethodPost, "/api/user/orders/grab", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestGrabOrder_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"frozen", service.ErrOrderFrozen, http.StatusLocked},
		{"daily limit", service.ErrDailyLimitReached, http.StatusTooManyRequests},
		{"low balance", service.ErrInsufficientBalance, http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, auth := newTestHandler(t, &stubService{grabErr: tt.err})
			cookie := authCookie(auth, 7, "USER")

			res := doRequest(t, h, cookie, http.MethodPost, "/api/user/orders/grab", nil)
			defer res.Body.Close()

			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestConfirmOrder(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusOK},
		{"not found", repository.ErrOrderNotFound, http.StatusNotFound},
		{"high value", repository.ErrHighValueOrder, http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, auth := newTestHandler(t, &stubService{confirmErr: tt.err})
			cookie := authCookie(auth, 7, "USER")

			res := doRequest(t, h, cookie, http.MethodPost, "/api/user/orders/ord-1/confirm", nil)
			defer res.Body.Close()

			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestCancelOrder(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{})
	cookie := authCookie(auth, 7, "USER")

	res := doRequest(t, h, cookie, http.MethodDelete, "/api/user/orders/ord-1", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestGetOrders_NoContent(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{})
	cookie := authCookie(auth, 7, "USER")

	res := doRequest(t, h, cookie, http.MethodGet, "/api/user/orders", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestGetBalance(t *testing.T) {
	svc := &stubService{
		balanceResp: &model.Balance{Current: 1000.50, Frozen: 200},
	}
	h, auth := newTestHandler(t, svc)
	cookie := authCookie(auth, 7, "USER")

	res := doRequest(t, h, cookie, http.MethodGet, "/api/user/balance", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var b model.Balance
	if err := json.NewDecoder(res.Body).Decode(&b); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if b.Current != 1000.50 || b.Frozen != 200 {
		t.Fatalf("unexpected balance: %+v", b)
	}
}

func TestWithdraw_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusAccepted},
		{"insufficient balance", repository.ErrInsufficientBalance, http.StatusPaymentRequired},
		{"wrong password", service.ErrWrongTransactionPassword, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, auth := newTestHandler(t, &stubService{withdrawErr: tt.err})
			cookie := authCookie(auth, 7, "USER")

			res := doRequest(t, h, cookie, http.MethodPost, "/api/user/balance/withdraw", withdrawRequest{
				Amount:              100,
				TransactionPassword: "pass",
			})
			defer res.Body.Close()

			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestDeposit_BadAmount(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{})
	cookie := authCookie(auth, 7, "USER")

	res := doRequest(t, h, cookie, http.MethodPost, "/api/user/balance/deposit", depositRequest{Amount: -5})
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestAdminRoutes_Forbidden(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{})
	cookie := authCookie(auth, 7, "USER")

	res := doRequest(t, h, cookie, http.MethodGet, "/api/admin/users", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusForbidden)
	}
}

func TestAdminListUsers(t *testing.T) {
	svc := &stubService{
		usersResp: []model.User{
			{ID: 1, Username: "alice", Role: model.RoleUser, Balance: 1000, Level: 1, Status: model.UserStatusActive},
		},
	}
	h, auth := newTestHandler(t, svc)
	cookie := authCookie(auth, 99, "ADMIN")

	res := doRequest(t, h, cookie, http.MethodGet, "/api/admin/users", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var users []adminUserResponse
	if err := json.NewDecoder(res.Body).Decode(&users); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" || users[0].Balance != 1000 {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestAdminUpdateSystemConfig_Validation(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{})
	cookie := authCookie(auth, 99, "ADMIN")

	res := doRequest(t, h, cookie, http.MethodPut, "/api/admin/config", model.SystemConfig{
		DailyOrderLimit:   60,
		CommissionRate:    0.02,
		MinBalancePercent: 0.5,
		MaxBalancePercent: 0.1,
	})
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestAdminCreateRegistrationCode(t *testing.T) {
	svc := &stubService{
		codeResp: &model.RegistrationCode{ID: "rc-1", Code: "654321", Status: model.CodeStatusUnused},
	}
	h, auth := newTestHandler(t, svc)
	cookie := authCookie(auth, 99, "ADMIN")

	res := doRequest(t, h, cookie, http.MethodPost, "/api/admin/codes", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var code codeResponse
	if err := json.NewDecoder(res.Body).Decode(&code); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if code.Code != "654321" || code.Status != "UNUSED" {
		t.Fatalf("unexpected code: %+v", code)
	}
}
