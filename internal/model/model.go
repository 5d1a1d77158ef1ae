// Package model содержит доменные сущности сервиса грабмарт.
package model

import "time"

// Role описывает роль учётной записи.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// UserStatus описывает состояние учётной записи.
type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

// RiggedOrder задаёт фиксированный исход заказа с указанным порядковым номером.
// Правило пользователя имеет приоритет над правилом уровня.
type RiggedOrder struct {
	OrderIndex     int     `json:"orderIndex"`
	Amount         float64 `json:"amount"`
	CommissionRate float64 `json:"commissionRate"`
	ProductName    string  `json:"productName,omitempty"`
	ProductImage   string  `json:"productImage,omitempty"`
}

// User представляет зарегистрированного пользователя платформы.
// Поля Custom* — индивидуальные переопределения политики; nil означает
// «использовать значение уровня или системное».
type User struct {
	ID                      int64
	Username                string
	PasswordHash            []byte
	TransactionPasswordHash []byte
	FullName                string
	PhoneNumber             string
	Role                    Role
	Balance                 float64
	FrozenBalance           float64
	Level                   int
	OrdersCompletedToday    int
	Status                  UserStatus
	IsOrderFrozen           bool
	CustomDailyOrderLimit   *int
	CustomCommissionRate    *float64
	CustomMinBalancePercent *float64
	CustomMaxBalancePercent *float64
	CustomMaxOrderAmount    *float64
	CustomRiggedOrders      []RiggedOrder
	ReferralCode            string
	ReferredBy              *int64
	IPAddress               string
	IPRegion                string
	LastOnline              time.Time
	CreatedAt               time.Time
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// Order описывает выданный пользователю заказ. Amount — условная стоимость
// товара, Commission — вознаграждение, зачисляемое при подтверждении.
type Order struct {
	ID           string
	UserID       int64
	ProductName  string
	ProductImage string
	Amount       float64
	Commission   float64
	Status       OrderStatus
	CreatedAt    time.Time
}

// TransactionType описывает тип операции по счёту.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdraw   TransactionType = "WITHDRAW"
	TransactionTypeCommission TransactionType = "COMMISSION"
)

// TransactionStatus описывает статус операции по счёту.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusApproved  TransactionStatus = "APPROVED"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction описывает запись в журнале операций пользователя.
type Transaction struct {
	ID        string
	UserID    int64
	Type      TransactionType
	Amount    float64
	Status    TransactionStatus
	Details   string
	CreatedAt time.Time
}

// Product описывает товар каталога, используемый при генерации заказов.
type Product struct {
	ID        string
	Name      string
	ImageURL  string
	Price     float64
	CreatedAt time.Time
}

// SystemConfig содержит общесистемные значения политики выдачи заказов.
type SystemConfig struct {
	DailyOrderLimit   int     `json:"dailyOrderLimit"`
	CommissionRate    float64 `json:"commissionRate"`
	MinBalancePercent float64 `json:"minBalancePercent"`
	MaxBalancePercent float64 `json:"maxBalancePercent"`
	MaintenanceMode   bool    `json:"maintenanceMode"`
}

// LevelConfig содержит переопределения политики для уровня пользователей.
// nil-поле означает «использовать системное значение».
type LevelConfig struct {
	Level             int
	Name              string
	DailyOrderLimit   *int
	CommissionRate    *float64
	MinBalancePercent *float64
	MaxBalancePercent *float64
	RiggedOrders      []RiggedOrder
}

// CodeStatus описывает состояние пригласительного кода.
type CodeStatus string

const (
	CodeStatusUnused  CodeStatus = "UNUSED"
	CodeStatusUsed    CodeStatus = "USED"
	CodeStatusExpired CodeStatus = "EXPIRED"
)

// RegistrationCode представляет пригласительный код для регистрации.
type RegistrationCode struct {
	ID        string
	Code      string
	Status    CodeStatus
	UsedBy    *int64
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Balance содержит доступный и замороженный баланс пользователя.
type Balance struct {
	Current float64 `json:"current"`
	Frozen  float64 `json:"frozen"`
}
