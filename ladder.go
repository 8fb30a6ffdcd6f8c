package stocks

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Tunable ladder policy constants. The creation gate and the horizon edge
// heuristic are policy, not derived from a clean invariant.
var (
	// trendResetFactor is how far above the trend minimum the price must
	// bounce before downside tracking resets.
	trendResetFactor = R(1.015)

	// newRungGateFraction scales the spacing margin added to a rung's
	// ceiling when deciding whether a nearby rung already covers the spot.
	newRungGateFraction = R(0.25)

	// horizonFillTolerance smooths horizon rung spawning near the boundary.
	horizonFillTolerance = M(0.02, "")

	// minBuyClampFactor keeps rung targets slightly below the market when
	// clamping their min buy price.
	minBuyClampFactor = R(0.99)
)

// RungDef is a persistent template that defines how to generate a ladder
// rung.
type RungDef struct {
	// SellTimes is the maximum multiple of the current price that the
	// rung's sell price may be. When exceeded, the rung's price is lowered.
	SellTimes Ratio

	// Profit is the initial amount of profit to make off this rung when the
	// target is reached. As the rung lowers, the target profit is gradually
	// reduced toward MinProfit, which saves on the cost of buying more
	// shares to satisfy the target.
	Profit Money

	// MinProfit is the floor that profit adjustment never goes below.
	MinProfit Money

	// MinShareProfitRatio is the minimum profit-per-share ratio the rung's
	// target allows; it determines the target's max buy price.
	MinShareProfitRatio Ratio

	// DisableTrendThreshold, when non-nil, disables this def's rungs once
	// the price has fallen by this fraction from the trend maximum without a
	// qualifying bounce in between.
	DisableTrendThreshold *Ratio

	// DisableDays, when non-empty, disables this def's rungs on these
	// weekdays.
	DisableDays []time.Weekday
}

// NewRungDef creates a rung definition whose profit floor equals its profit.
func NewRungDef(sellTimes Ratio, profit Money, minShareProfitRatio Ratio) *RungDef {
	return &RungDef{
		SellTimes:           sellTimes,
		Profit:              profit,
		MinProfit:           profit,
		MinShareProfitRatio: minShareProfitRatio,
	}
}

func (d *RungDef) String() string {
	return fmt.Sprintf("RungDef[sellTimes: %s, profit: %s, minProfit: %s, minShareProfitRatio: %s]",
		d.SellTimes.StringFixed(3), d.Profit, d.MinProfit, d.MinShareProfitRatio.StringFixed(2))
}

// Rung is one live price tier in a ladder, holding one target.
type Rung struct {
	Target *Target

	// StartPrice is the price when the rung was created.
	StartPrice Money

	// LowestPrice is the minimum price observed since creation; it only
	// ever decreases.
	LowestPrice Money

	Disabled bool
}

// ApplyPriceTransform rewrites every price the rung tracks through the given
// pure transform.
func (r *Rung) ApplyPriceTransform(fn func(Money) Money) {
	r.StartPrice = fn(r.StartPrice)
	r.LowestPrice = fn(r.LowestPrice)
	r.Target.ApplyPriceTransform(fn)
}

func (r *Rung) String() string {
	return fmt.Sprintf("Rung[target: %s, disabled: %v, startPrice: %s, lowestPrice: %s]",
		r.Target, r.Disabled, r.StartPrice, r.LowestPrice)
}

// Ladder is a stage that keeps sell targets within reach even as the price
// drops.
//
// A ladder uses a series of rungs to generate targets, each associated with
// a rate of return R such that between the rung's creation and the target
// being reached, the price makes a transition from 1x to Rx. Rungs sit at
// regular logarithmic intervals, such as 1.02x, 1.0404x, and so on. As the
// price goes down, the last definition's rung repeats so the target horizon
// stays at the same price, with new rungs filling the space in between.
type Ladder struct {
	defs []*RungDef

	// rungs is parallel to defs: rungs[i] holds the live rungs generated
	// from defs[i], keyed by stable tier index rather than definition
	// identity.
	rungs [][]*Rung

	horizon    Money
	hasHorizon bool

	// frequency is the spacing multiplier between repeated rungs of the
	// same tier.
	frequency Ratio

	minTrendPoint Money
	maxTrendPoint Money
	hasTrend      bool

	paused bool

	// location resolves the weekday for day-of-week disable rules.
	location *time.Location
}

// NewLadder creates a ladder with no live rungs. A nil location defaults to
// America/Toronto.
func NewLadder(defs []*RungDef, frequency Ratio, location *time.Location) *Ladder {
	if location == nil {
		location = defaultLadderLocation()
	}
	return &Ladder{
		defs:      defs,
		rungs:     make([][]*Rung, len(defs)),
		frequency: frequency,
		location:  location,
	}
}

func defaultLadderLocation() *time.Location {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		return time.UTC
	}
	return loc
}

func (l *Ladder) Kind() string { return "ladder" }

// Defs returns the ladder's ordered rung definitions.
func (l *Ladder) Defs() []*RungDef { return l.defs }

// Rungs returns the live rungs of the given definition tier.
func (l *Ladder) Rungs(tier int) []*Rung { return l.rungs[tier] }

// Horizon returns the furthest future sell price being planned for; ok is
// false before the first update.
func (l *Ladder) Horizon() (horizon Money, ok bool) { return l.horizon, l.hasHorizon }

// SetPaused stops rung creation and horizon expansion; reached rungs are
// still removed and the trend still tracked.
func (l *Ladder) SetPaused(paused bool) { l.paused = paused }

func (l *Ladder) Paused() bool { return l.paused }

// OnUpdate advances the ladder to the given moment and price: it tracks the
// trend, applies disable rules, removes reached rungs, expands the horizon,
// creates and reprices rungs, fills the space up to the horizon, and
// recomputes every rung target.
func (l *Ladder) OnUpdate(now time.Time, currentPrice Money, minMargin Ratio) {
	l.updateTrend(now, currentPrice)
	l.removeReachedRungs(currentPrice)

	if l.paused {
		return
	}

	// Grow the horizon so we can fill up to that point with rungs.
	proposed := currentPrice.MulRatio(l.lastDef().SellTimes).RoundPenny()
	if l.hasHorizon {
		l.horizon = MaxMoney(l.horizon, proposed)
	} else {
		l.horizon = proposed
		l.hasHorizon = true
	}

	l.createAndRepriceRungs(now, currentPrice)
	l.fillToHorizon(currentPrice)
	l.updateRungTargets(currentPrice, minMargin)
}

// updateTrend continues or resets the trend. A reset happens when the
// current price bounces a threshold above the trend minimum; disable rules
// only fire on updates where the trend was already established.
func (l *Ladder) updateTrend(now time.Time, currentPrice Money) {
	if !l.hasTrend {
		l.minTrendPoint = currentPrice
		l.maxTrendPoint = currentPrice
		l.hasTrend = true
		return
	}

	if l.minTrendPoint.MulRatio(trendResetFactor).LessThan(currentPrice) {
		l.minTrendPoint = currentPrice
		l.maxTrendPoint = currentPrice
	} else {
		l.minTrendPoint = MinMoney(l.minTrendPoint, currentPrice)
		l.maxTrendPoint = MaxMoney(l.maxTrendPoint, currentPrice)
	}

	// In a strong downward trend, disable defs that have reached their
	// threshold. Also disable based on weekdays if set.
	day := now.In(l.location).Weekday()
	for tier, def := range l.defs {
		if weekdayIn(def.DisableDays, day) {
			for _, rung := range l.rungs[tier] {
				if !rung.Disabled {
					rung.Disabled = true
					log.Printf("day of week disabling rung: %s", rung)
				}
			}
		}

		if def.DisableTrendThreshold != nil {
			ratio := l.maxTrendPoint.Sub(currentPrice).DivMoney(l.maxTrendPoint)
			if def.DisableTrendThreshold.LessThanOrEqual(ratio) {
				for _, rung := range l.rungs[tier] {
					if !rung.Disabled {
						rung.Disabled = true
						log.Printf("downward trend disabling rung: %s", rung)
					}
				}
			}
		}
	}
}

// removeReachedRungs drops rungs whose sell price has been reached.
func (l *Ladder) removeReachedRungs(currentPrice Money) {
	for tier := range l.rungs {
		var kept []*Rung
		for _, rung := range l.rungs[tier] {
			if currentPrice.LessThan(rung.Target.SellPrice) {
				kept = append(kept, rung)
			}
		}
		l.rungs[tier] = kept
	}
}

func (l *Ladder) lastDef() *RungDef { return l.defs[len(l.defs)-1] }

type rungPricePoint struct {
	tier  int
	price Money
}

// createAndRepriceRungs creates rungs where there's room for them and
// adjusts existing rungs so they stay no more than sell-times above the
// current price. Horizon fill-in is handled separately.
func (l *Ladder) createAndRepriceRungs(now time.Time, currentPrice Money) {
	// Snapshot the existing rung price points before creating anything.
	var points []rungPricePoint
	for tier := range l.defs {
		for _, rung := range l.rungs[tier] {
			points = append(points, rungPricePoint{tier: tier, price: rung.Target.SellPrice})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].tier != points[j].tier {
			return points[i].tier < points[j].tier
		}
		return points[i].price.LessThan(points[j].price)
	})

	day := now.In(l.location).Weekday()
	for tier, def := range l.defs {
		if weekdayIn(def.DisableDays, day) {
			continue
		}

		rungs := l.rungs[tier]
		if len(rungs) == 0 {
			maxSellPrice := currentPrice.MulRatio(def.SellTimes).RoundPenny()

			// A rung of lower-or-equal priority sitting below this threshold
			// means a nearby rung already covers the spot, so creating
			// another would just thrash.
			spacing := currentPrice.MulRatio(l.frequency).Sub(currentPrice)
			newThreshold := maxSellPrice.Add(spacing.MulRatio(newRungGateFraction))

			canCreate := true
			for _, p := range points {
				if tier <= p.tier && p.price.LessThan(newThreshold) {
					canCreate = false
					break
				}
			}
			if canCreate {
				// The target update pass below overrides some of these
				// values.
				l.rungs[tier] = []*Rung{newRung(def, maxSellPrice, currentPrice, false)}
			}
			continue
		}

		for i, rung := range rungs {
			maxSellPrice := currentPrice.MulRatio(def.SellTimes).MulRatio(l.frequency.PowInt(i)).RoundPenny()
			// Only ever clamp down, never raise.
			rung.Target.SellPrice = MinMoney(rung.Target.SellPrice, maxSellPrice)
		}
	}
}

// fillToHorizon appends rungs of the last definition, spaced by the rung
// frequency, until the next one would exceed the horizon. A rung is marked
// as a horizon rung only when it was created on the edge of the horizon as
// the price goes up, rather than when space opens up as the price goes down.
func (l *Ladder) fillToHorizon(currentPrice Money) {
	lastTier := len(l.defs) - 1
	lastDef := l.defs[lastTier]
	lastRungs := l.rungs[lastTier]
	if len(lastRungs) == 0 {
		// No anchor rung to space from; the creation gate blocked it.
		return
	}

	lastPrice := lastRungs[len(lastRungs)-1].Target.SellPrice
	for lastPrice.MulRatio(l.frequency).Add(horizonFillTolerance).LessThan(l.horizon) {
		price := lastPrice.MulRatio(l.frequency).RoundPenny()
		lastPrice = price

		// Detect the horizon edge using a simple heuristic.
		isHorizon := currentPrice.MulRatio(lastDef.SellTimes).GreaterThanOrEqual(price)
		lastRungs = append(lastRungs, newRung(lastDef, price, currentPrice, isHorizon))
	}
	l.rungs[lastTier] = lastRungs
}

// updateRungTargets recomputes every rung target: profit shrinks as the
// lowest observed price falls, the max buy price follows the sell price, and
// the min buy price stays just below the market.
func (l *Ladder) updateRungTargets(currentPrice Money, minMargin Ratio) {
	for tier, def := range l.defs {
		for i, rung := range l.rungs[tier] {
			target := rung.Target
			sellPrice := target.SellPrice

			sellTimes := def.SellTimes.Mul(l.frequency.PowInt(i))
			rung.LowestPrice = MinMoney(rung.LowestPrice, currentPrice)
			target.Profit = adjustTargetProfit(def.Profit, def.MinProfit,
				rung.StartPrice, rung.LowestPrice, sellTimes, minMargin)
			target.MaxBuyPrice = sellPrice.DivRatio(def.MinShareProfitRatio).RoundPenny()
			target.MinBuyPrice = MinMoney(target.MinBuyPrice, currentPrice.MulRatio(minBuyClampFactor))
		}
	}
}

// GenerateTargets generates targets from the enabled rungs of the ladder.
func (l *Ladder) GenerateTargets() []*Target {
	var targets []*Target
	for tier := range l.rungs {
		for _, rung := range l.rungs[tier] {
			if !rung.Disabled {
				targets = append(targets, rung.Target)
			}
		}
	}
	return targets
}

// OnHorizonFilled clears the horizon funding request on the matching rung's
// target.
func (l *Ladder) OnHorizonFilled(id uuid.UUID) {
	for tier := range l.rungs {
		for _, rung := range l.rungs[tier] {
			if rung.Target.HorizonRequestID != nil && *rung.Target.HorizonRequestID == id {
				rung.Target.HorizonRequestID = nil
			}
		}
	}
}

// HighestReadyPrice gets the highest price where any rungs on the horizon
// are already paid up to that point.
func (l *Ladder) HighestReadyPrice() Money {
	if !l.hasHorizon {
		return Money{}
	}
	return l.horizon.DivRatio(l.lastDef().SellTimes).RoundPenny()
}

// EnableRungs enables all disabled rungs and clears the trend.
func (l *Ladder) EnableRungs(resetPrice Money) {
	l.minTrendPoint = resetPrice
	l.maxTrendPoint = resetPrice
	l.hasTrend = true
	for tier := range l.rungs {
		for _, rung := range l.rungs[tier] {
			rung.Disabled = false
		}
	}
}

// ScaleProfitLevels scales rung definition profit levels by the given factor
// and recomputes every rung target's profit.
func (l *Ladder) ScaleProfitLevels(factor float64, minMargin Ratio) {
	for _, def := range l.defs {
		def.Profit = def.Profit.MulRatio(R(factor)).RoundPenny()
		def.MinProfit = def.MinProfit.MulRatio(R(factor)).RoundPenny()
	}
	for tier, def := range l.defs {
		for i, rung := range l.rungs[tier] {
			sellTimes := def.SellTimes.Mul(l.frequency.PowInt(i))
			rung.Target.Profit = adjustTargetProfit(def.Profit, def.MinProfit,
				rung.StartPrice, rung.LowestPrice, sellTimes, minMargin)
		}
	}
}

// ResetProfitLevels lowers every rung's profit adjustment baseline to the
// given price.
func (l *Ladder) ResetProfitLevels(resetPrice Money) {
	for tier := range l.rungs {
		for _, rung := range l.rungs[tier] {
			rung.StartPrice = MinMoney(rung.StartPrice, resetPrice)
		}
	}
}

// ApplyPriceTransform rewrites every price the ladder tracks through the
// given pure transform.
func (l *Ladder) ApplyPriceTransform(fn func(Money) Money) {
	if l.hasHorizon {
		l.horizon = fn(l.horizon)
	}
	for tier := range l.rungs {
		for _, rung := range l.rungs[tier] {
			rung.ApplyPriceTransform(fn)
		}
	}
}

// newRung creates a ladder rung that sells at the indicated price level.
func newRung(def *RungDef, sellPrice, currentPrice Money, isHorizon bool) *Rung {
	name := def.SellTimes.StringFixed(3) + "x"
	target := NewTarget(name, def.Profit, sellPrice, currentPrice, currentPrice)
	if isHorizon {
		id := uuid.New()
		target.HorizonRequestID = &id
	}
	return &Rung{Target: target, StartPrice: currentPrice, LowestPrice: currentPrice}
}

// adjustTargetProfit adjusts the profit of a rung target based on the lowest
// price reached since the target was created. The adjustment assumes the
// target was initially satisfied with shares bought at startPrice, and asks
// how much profit those same shares would make now that the target has moved
// down with the price. The result is clamped to [minProfit, maxProfit].
//
// The calculation is a simplification: it ignores min-margin crediting on
// the original buy.
func adjustTargetProfit(maxProfit, minProfit, startPrice, lowestPrice Money,
	sellTimes Ratio, minMargin Ratio) Money {

	// How many shares at startPrice were needed to satisfy the target.
	originalSellPrice := startPrice.MulRatio(sellTimes)
	buyPrice := MinMoney(startPrice, originalSellPrice.DivRatio(minMargin))
	originalPerShare := originalSellPrice.Sub(buyPrice)
	nAtStart := maxProfit.DivMoney(originalPerShare)

	lowestSellPrice := lowestPrice.MulRatio(sellTimes)
	lowestPerShare := lowestSellPrice.Sub(buyPrice)
	lowestProfit := lowestPerShare.MulRatio(nAtStart).RoundPenny()

	return MinMoney(MaxMoney(lowestProfit, minProfit), maxProfit)
}

func weekdayIn(days []time.Weekday, day time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
