package rules

import (
	"testing"

	"github.com/mmeshcher/grabmart-system/internal/model"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

var sysCfg = model.SystemConfig{
	DailyOrderLimit:   60,
	CommissionRate:    0.02,
	MinBalancePercent: 0.1,
	MaxBalancePercent: 0.5,
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		user     model.User
		levelCfg *model.LevelConfig
		want     Effective
	}{
		{
			name: "system defaults only",
			user: model.User{Level: 1},
			want: Effective{
				DailyOrderLimit:   60,
				CommissionRate:    0.02,
				MinBalancePercent: 0.1,
				MaxBalancePercent: 0.5,
			},
		},
		{
			name: "level overrides partial",
			user: model.User{Level: 2},
			levelCfg: &model.LevelConfig{
				Level:             2,
				DailyOrderLimit:   intPtr(65),
				CommissionRate:    floatPtr(0.025),
				MaxBalancePercent: floatPtr(0.6),
			},
			want: Effective{
				DailyOrderLimit:   65,
				CommissionRate:    0.025,
				MinBalancePercent: 0.1,
				MaxBalancePercent: 0.6,
			},
		},
		{
			name: "user overrides win over level and system",
			user: model.User{
				Level:                   2,
				CustomDailyOrderLimit:   intPtr(5),
				CustomCommissionRate:    floatPtr(0.5),
				CustomMinBalancePercent: floatPtr(0.3),
				CustomMaxBalancePercent: floatPtr(0.9),
			},
			levelCfg: &model.LevelConfig{
				Level:           2,
				DailyOrderLimit: intPtr(65),
				CommissionRate:  floatPtr(0.025),
			},
			want: Effective{
				DailyOrderLimit:   5,
				CommissionRate:    0.5,
				MinBalancePercent: 0.3,
				MaxBalancePercent: 0.9,
			},
		},
		{
			name: "zero override is a value, not absence",
			user: model.User{
				Level:                 1,
				CustomDailyOrderLimit: intPtr(0),
			},
			want: Effective{
				DailyOrderLimit:   0,
				CommissionRate:    0.02,
				MinBalancePercent: 0.1,
				MaxBalancePercent: 0.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(&tt.user, tt.levelCfg, sysCfg)
			if got != tt.want {
				t.Fatalf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveMaxOrderAmount(t *testing.T) {
	u := model.User{Level: 1}
	eff := Resolve(&u, nil, sysCfg)
	if eff.MaxOrderAmount != nil {
		t.Fatalf("MaxOrderAmount without overrides must be nil, got %v", *eff.MaxOrderAmount)
	}

	u.CustomMaxOrderAmount = floatPtr(300)
	eff = Resolve(&u, nil, sysCfg)
	if eff.MaxOrderAmount == nil || *eff.MaxOrderAmount != 300 {
		t.Fatalf("MaxOrderAmount = %v, want 300", eff.MaxOrderAmount)
	}
}

func TestFindRigged(t *testing.T) {
	userRule := model.RiggedOrder{OrderIndex: 3, Amount: 500, CommissionRate: 0.1, ProductName: "user product"}
	levelRule := model.RiggedOrder{OrderIndex: 3, Amount: 200, CommissionRate: 0.05, ProductName: "level product"}

	u := model.User{CustomRiggedOrders: []model.RiggedOrder{userRule}}
	lc := &model.LevelConfig{RiggedOrders: []model.RiggedOrder{levelRule, {OrderIndex: 7, Amount: 1000, CommissionRate: 0.2}}}

	t.Run("user rule wins over level rule", func(t *testing.T) {
		rule, src := FindRigged(&u, lc, 3)
		if src != SourceUser {
			t.Fatalf("source = %v, want user", src)
		}
		if rule.Amount != 500 || rule.ProductName != "user product" {
			t.Fatalf("unexpected rule: %+v", rule)
		}
	})

	t.Run("level rule when no user rule", func(t *testing.T) {
		rule, src := FindRigged(&u, lc, 7)
		if src != SourceLevel {
			t.Fatalf("source = %v, want level", src)
		}
		if rule.Amount != 1000 {
			t.Fatalf("unexpected rule: %+v", rule)
		}
	})

	t.Run("no rule at index", func(t *testing.T) {
		_, src := FindRigged(&u, lc, 4)
		if src != SourceRandom {
			t.Fatalf("source = %v, want random", src)
		}
	})

	t.Run("nil level config", func(t *testing.T) {
		_, src := FindRigged(&model.User{}, nil, 1)
		if src != SourceRandom {
			t.Fatalf("source = %v, want random", src)
		}
	})
}
