package stocks

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// A Wednesday, so weekday disable rules stay out of the way by default.
var ladderNow = time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC)

func twoTierLadder() *Ladder {
	defs := []*RungDef{
		NewRungDef(R(1.02), M(10, ""), R(1.01)),
		NewRungDef(R(1.10), M(50, ""), R(1.05)),
	}
	return NewLadder(defs, R(1.02), time.UTC)
}

func TestLadderFirstUpdate(t *testing.T) {
	l := twoTierLadder()
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))

	if horizon, ok := l.Horizon(); !ok || !horizon.Equal(M(110, "")) {
		t.Errorf("horizon = %s, %v; want 110, true", horizon, ok)
	}
	if len(l.Rungs(0)) != 1 || len(l.Rungs(1)) != 1 {
		t.Fatalf("got %d and %d rungs, want 1 and 1", len(l.Rungs(0)), len(l.Rungs(1)))
	}

	target := l.Rungs(0)[0].Target
	if !target.SellPrice.Equal(M(102, "")) {
		t.Errorf("tier 0 sell price = %s, want 102", target.SellPrice)
	}
	if !target.MaxBuyPrice.Equal(M(100.99, "")) {
		t.Errorf("tier 0 max buy price = %s, want 100.99", target.MaxBuyPrice)
	}
	if !target.MinBuyPrice.Equal(M(99, "")) {
		t.Errorf("tier 0 min buy price = %s, want 99", target.MinBuyPrice)
	}
	if !target.Profit.Equal(M(10, "")) {
		t.Errorf("tier 0 profit = %s, want 10", target.Profit)
	}

	if sell := l.Rungs(1)[0].Target.SellPrice; !sell.Equal(M(110, "")) {
		t.Errorf("tier 1 sell price = %s, want 110", sell)
	}
	if got := len(l.GenerateTargets()); got != 2 {
		t.Errorf("generated %d targets, want 2", got)
	}
}

func TestLadderFillsTowardHorizonOnDrop(t *testing.T) {
	l := twoTierLadder()
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))
	l.OnUpdate(ladderNow.AddDate(0, 0, 1), M(90, ""), R(1.01))

	// The horizon never shrinks.
	if horizon, _ := l.Horizon(); !horizon.Equal(M(110, "")) {
		t.Errorf("horizon = %s, want 110", horizon)
	}

	// The drop clamps existing rungs down and opens space that fills with
	// repeated last-tier rungs up to the horizon.
	if sell := l.Rungs(0)[0].Target.SellPrice; !sell.Equal(M(91.8, "")) {
		t.Errorf("tier 0 sell price = %s, want 91.80", sell)
	}
	last := l.Rungs(1)
	if len(last) < 2 {
		t.Fatalf("got %d last-tier rungs, want several", len(last))
	}
	horizon, _ := l.Horizon()
	prev := Money{}
	for i, rung := range last {
		sell := rung.Target.SellPrice
		if !prev.LessThan(sell) {
			t.Errorf("rung %d sell price %s is not above the previous %s", i, sell, prev)
		}
		if horizon.LessThan(sell) {
			t.Errorf("rung %d sell price %s exceeds the horizon %s", i, sell, horizon)
		}
		prev = sell
	}

	// Profit adjustment never leaves [MinProfit, Profit].
	for tier, def := range l.Defs() {
		for _, rung := range l.Rungs(tier) {
			p := rung.Target.Profit
			if p.LessThan(def.MinProfit) || def.Profit.LessThan(p) {
				t.Errorf("tier %d rung profit %s outside [%s, %s]", tier, p, def.MinProfit, def.Profit)
			}
		}
	}
}

func TestLadderRemovesAndRecreatesReachedRungs(t *testing.T) {
	l := twoTierLadder()
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))

	// 103 reaches the tier 0 rung at 102; a replacement is created at the
	// new price level.
	l.OnUpdate(ladderNow.AddDate(0, 0, 1), M(103, ""), R(1.01))

	rungs := l.Rungs(0)
	if len(rungs) != 1 {
		t.Fatalf("got %d tier 0 rungs, want 1", len(rungs))
	}
	if sell := rungs[0].Target.SellPrice; !sell.Equal(M(105.06, "")) {
		t.Errorf("recreated sell price = %s, want 105.06", sell)
	}
}

func TestLadderCreationGate(t *testing.T) {
	// With a last-tier rung sitting just above, a new tier 0 rung would
	// thrash, so creation is suppressed.
	defs := []*RungDef{
		NewRungDef(R(1.02), M(10, ""), R(1.01)),
		NewRungDef(R(1.10), M(50, ""), R(1.05)),
	}
	l := NewLadder(defs, R(1.02), time.UTC)
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))

	// Drop far enough that the old tier 1 rungs sit just above the would-be
	// tier 0 spot.
	l.OnUpdate(ladderNow.AddDate(0, 0, 1), M(103, ""), R(1.01))
	l.OnUpdate(ladderNow.AddDate(0, 0, 2), M(90, ""), R(1.01))

	for tier := range defs {
		for _, rung := range l.Rungs(tier) {
			if rung.Target.SellPrice.LessThan(M(90, "")) {
				t.Errorf("tier %d rung below the current price: %s", tier, rung)
			}
		}
	}
}

func TestLadderTrendReset(t *testing.T) {
	l := twoTierLadder()
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))
	l.OnUpdate(ladderNow.AddDate(0, 0, 1), M(95, ""), R(1.01))

	if !l.minTrendPoint.Equal(M(95, "")) || !l.maxTrendPoint.Equal(M(100, "")) {
		t.Fatalf("trend = [%s, %s], want [95, 100]", l.minTrendPoint, l.maxTrendPoint)
	}

	// A bounce more than 1.5% above the minimum restarts the trend.
	l.OnUpdate(ladderNow.AddDate(0, 0, 2), M(97, ""), R(1.01))
	if !l.minTrendPoint.Equal(M(97, "")) || !l.maxTrendPoint.Equal(M(97, "")) {
		t.Errorf("trend = [%s, %s], want reset to [97, 97]", l.minTrendPoint, l.maxTrendPoint)
	}
}

func TestLadderTrendDisable(t *testing.T) {
	threshold := R(0.05)
	defs := []*RungDef{NewRungDef(R(1.10), M(50, ""), R(1.05))}
	defs[0].DisableTrendThreshold = &threshold
	l := NewLadder(defs, R(1.02), time.UTC)

	l.OnUpdate(ladderNow, M(100, ""), R(1.01))
	if l.Rungs(0)[0].Disabled {
		t.Fatal("rung disabled without a downward trend")
	}

	// A 6% drop from the trend maximum crosses the 5% threshold. Rungs
	// created by the later horizon fill-in stay enabled.
	l.OnUpdate(ladderNow.AddDate(0, 0, 1), M(94, ""), R(1.01))
	disabled := l.Rungs(0)[0]
	if !disabled.Disabled {
		t.Fatal("rung should be disabled by the downward trend")
	}
	for _, target := range l.GenerateTargets() {
		if target == disabled.Target {
			t.Error("disabled rungs must not generate targets")
		}
	}

	l.EnableRungs(M(94, ""))
	if l.Rungs(0)[0].Disabled {
		t.Error("EnableRungs should re-enable the rung")
	}
	if !l.minTrendPoint.Equal(M(94, "")) || !l.maxTrendPoint.Equal(M(94, "")) {
		t.Errorf("trend = [%s, %s], want reset to [94, 94]", l.minTrendPoint, l.maxTrendPoint)
	}
}

func TestLadderWeekdayDisable(t *testing.T) {
	defs := []*RungDef{NewRungDef(R(1.10), M(50, ""), R(1.05))}
	defs[0].DisableDays = []time.Weekday{time.Saturday}
	l := NewLadder(defs, R(1.02), time.UTC)

	friday := time.Date(2026, time.January, 9, 12, 0, 0, 0, time.UTC)
	l.OnUpdate(friday, M(100, ""), R(1.01))
	if l.Rungs(0)[0].Disabled {
		t.Fatal("rung disabled on a Friday")
	}

	saturday := friday.AddDate(0, 0, 1)
	l.OnUpdate(saturday, M(100, ""), R(1.01))
	if !l.Rungs(0)[0].Disabled {
		t.Error("rung should be disabled on a Saturday")
	}
}

func TestLadderPaused(t *testing.T) {
	l := twoTierLadder()
	l.SetPaused(true)
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))

	if _, ok := l.Horizon(); ok {
		t.Error("a paused ladder must not grow a horizon")
	}
	if len(l.Rungs(0)) != 0 || len(l.Rungs(1)) != 0 {
		t.Error("a paused ladder must not create rungs")
	}

	// Unpausing resumes normal behavior; reached rungs are still removed
	// while paused.
	l.SetPaused(false)
	l.OnUpdate(ladderNow.AddDate(0, 0, 1), M(100, ""), R(1.01))
	if len(l.Rungs(0)) != 1 {
		t.Error("an unpaused ladder should create rungs again")
	}
}

func TestLadderOnHorizonFilled(t *testing.T) {
	l := twoTierLadder()
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))
	// Climb so the horizon grows and fill-in spawns horizon rungs.
	l.OnUpdate(ladderNow.AddDate(0, 0, 1), M(109, ""), R(1.01))
	l.OnUpdate(ladderNow.AddDate(0, 0, 2), M(95, ""), R(1.01))

	var id uuid.UUID
	found := false
	for _, target := range l.GenerateTargets() {
		if target.HorizonRequestID != nil {
			id = *target.HorizonRequestID
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected at least one horizon funding request")
	}

	l.OnHorizonFilled(id)
	for _, target := range l.GenerateTargets() {
		if target.HorizonRequestID != nil && *target.HorizonRequestID == id {
			t.Error("the funding request should be cleared")
		}
	}
}

func TestLadderHighestReadyPrice(t *testing.T) {
	l := twoTierLadder()
	if !l.HighestReadyPrice().IsZero() {
		t.Error("no horizon means no ready price")
	}
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))
	if got := l.HighestReadyPrice(); !got.Equal(M(100, "")) {
		t.Errorf("HighestReadyPrice() = %s, want 100", got)
	}
}

func TestLadderScaleProfitLevels(t *testing.T) {
	l := twoTierLadder()
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))

	l.ScaleProfitLevels(2, R(1.01))
	if got := l.Defs()[0].Profit; !got.Equal(M(20, "")) {
		t.Errorf("tier 0 def profit = %s, want 20", got)
	}
	if got := l.Rungs(0)[0].Target.Profit; !got.Equal(M(20, "")) {
		t.Errorf("tier 0 rung profit = %s, want 20", got)
	}
}

func TestLadderApplyPriceTransform(t *testing.T) {
	l := twoTierLadder()
	l.OnUpdate(ladderNow, M(100, ""), R(1.01))

	halve := func(m Money) Money { return m.DivRatio(R(2)) }
	l.ApplyPriceTransform(halve)

	if horizon, _ := l.Horizon(); !horizon.Equal(M(55, "")) {
		t.Errorf("horizon = %s, want 55", horizon)
	}
	if sell := l.Rungs(0)[0].Target.SellPrice; !sell.Equal(M(51, "")) {
		t.Errorf("tier 0 sell price = %s, want 51", sell)
	}
	if start := l.Rungs(0)[0].StartPrice; !start.Equal(M(50, "")) {
		t.Errorf("tier 0 start price = %s, want 50", start)
	}
}

func TestAdjustTargetProfit(t *testing.T) {
	tests := []struct {
		name   string
		lowest float64
		want   float64
	}{
		{"no drop keeps full profit", 100, 100},
		// 10 shares were needed at the start; at 95 each credits 4.50.
		{"partial drop shrinks profit", 95, 45},
		{"deep drop clamps to the floor", 80, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adjustTargetProfit(M(100, ""), M(20, ""), M(100, ""), M(tt.lowest, ""), R(1.10), R(1.01))
			if want := M(tt.want, ""); !got.Equal(want) {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}
