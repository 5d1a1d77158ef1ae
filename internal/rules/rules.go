// Package rules реализует разрешение политики выдачи заказов.
//
// Политика складывается из трёх слоёв: системные значения, переопределения
// уровня и индивидуальные переопределения пользователя. Действует правило
// «первое не-nil значение побеждает»: пользователь, затем уровень, затем
// система.
package rules

import "github.com/mmeshcher/grabmart-system/internal/model"

// Effective содержит итоговую политику для одного пользователя на момент
// выдачи заказа.
type Effective struct {
	DailyOrderLimit   int
	CommissionRate    float64
	MinBalancePercent float64
	MaxBalancePercent float64
	// MaxOrderAmount не имеет системного значения: nil означает,
	// что ограничение суммы заказа не применяется.
	MaxOrderAmount *float64
}

// Resolve вычисляет эффективную политику пользователя. levelCfg может быть
// nil, если для уровня пользователя конфигурация не задана. Разрешение всегда
// успешно: системная конфигурация гарантирует значения по умолчанию.
func Resolve(u *model.User, levelCfg *model.LevelConfig, sysCfg model.SystemConfig) Effective {
	eff := Effective{
		DailyOrderLimit:   sysCfg.DailyOrderLimit,
		CommissionRate:    sysCfg.CommissionRate,
		MinBalancePercent: sysCfg.MinBalancePercent,
		MaxBalancePercent: sysCfg.MaxBalancePercent,
	}

	if levelCfg != nil {
		if levelCfg.DailyOrderLimit != nil {
			eff.DailyOrderLimit = *levelCfg.DailyOrderLimit
		}
		if levelCfg.CommissionRate != nil {
			eff.CommissionRate = *levelCfg.CommissionRate
		}
		if levelCfg.MinBalancePercent != nil {
			eff.MinBalancePercent = *levelCfg.MinBalancePercent
		}
		if levelCfg.MaxBalancePercent != nil {
			eff.MaxBalancePercent = *levelCfg.MaxBalancePercent
		}
	}

	if u.CustomDailyOrderLimit != nil {
		eff.DailyOrderLimit = *u.CustomDailyOrderLimit
	}
	if u.CustomCommissionRate != nil {
		eff.CommissionRate = *u.CustomCommissionRate
	}
	if u.CustomMinBalancePercent != nil {
		eff.MinBalancePercent = *u.CustomMinBalancePercent
	}
	if u.CustomMaxBalancePercent != nil {
		eff.MaxBalancePercent = *u.CustomMaxBalancePercent
	}
	if u.CustomMaxOrderAmount != nil {
		eff.MaxOrderAmount = u.CustomMaxOrderAmount
	}

	return eff
}

// Source указывает источник исхода заказа.
type Source int

const (
	// SourceRandom — случайная генерация, подставное правило не найдено.
	SourceRandom Source = iota
	// SourceUser — подставное правило из переопределений пользователя.
	SourceUser
	// SourceLevel — подставное правило из конфигурации уровня.
	SourceLevel
)

// String возвращает текстовое представление источника.
func (s Source) String() string {
	switch s {
	case SourceUser:
		return "user"
	case SourceLevel:
		return "level"
	default:
		return "random"
	}
}

// FindRigged ищет подставное правило для заказа с порядковым номером index
// (нумерация с единицы). Правила пользователя проверяются раньше правил
// уровня. Если правило не найдено, возвращается SourceRandom.
func FindRigged(u *model.User, levelCfg *model.LevelConfig, index int) (model.RiggedOrder, Source) {
	for _, r := range u.CustomRiggedOrders {
		if r.OrderIndex == index {
			return r, SourceUser
		}
	}

	if levelCfg != nil {
		for _, r := range levelCfg.RiggedOrders {
			if r.OrderIndex == index {
				return r, SourceLevel
			}
		}
	}

	return model.RiggedOrder{}, SourceRandom
}
