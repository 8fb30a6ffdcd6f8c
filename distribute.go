package stocks

import (
	"fmt"
	"sort"
)

// Assignment is the set of shares currently credited to one target and the
// profit they yield.
type Assignment struct {
	Target *Target
	Shares *Shares
	Profit Money
}

// DistributionReport is the result of distributing shares to targets. It is
// recomputed wholesale on every Distribute call and supersedes the previous
// one; it carries no persisted identity.
type DistributionReport struct {
	// TargetToAssignment maps each target (by identity) to its assignment.
	TargetToAssignment map[*Target]*Assignment

	// Assignments lists the same assignments in deterministic processing
	// order: ascending (MaxBuyPrice, SellPrice).
	Assignments []*Assignment

	// Unbound holds the shares not credited to any target.
	Unbound *Shares

	// AllSatisfied reports whether every target reached its required profit.
	AllSatisfied bool

	// BuyablesSatisfied reports whether every target that could still be
	// filled by buying at the current price has been filled. Even when true,
	// targets whose max buy price is below the current price may remain
	// unsatisfied.
	BuyablesSatisfied bool

	// BuysNeeded is the minimal share count to buy at the current price so
	// that BuyablesSatisfied becomes true. Only meaningful when
	// HasBuysNeeded is set; Distribute computes it only when needed.
	BuysNeeded    int
	HasBuysNeeded bool
}

// Assignment returns the assignment for the given target, or nil.
func (r *DistributionReport) Assignment(t *Target) *Assignment {
	return r.TargetToAssignment[t]
}

// Distribute assigns the given shares to the given targets, returning the
// per-target assignments and the set of unbound shares. The input shares are
// never mutated.
//
// On top of a single greedy pass, it corrects the outcome: if some target
// could still be filled by buying at the current price, it searches for the
// minimal number of shares to buy; if instead every target is satisfied with
// shares left over, it searches for the maximal number of cheapest shares
// that can be released as surplus without breaking satisfaction.
func Distribute(shares *Shares, targets []*Target, currentPrice Money, minMargin Ratio) *DistributionReport {
	first := distributePass(shares, targets, currentPrice, minMargin)

	switch {
	case !first.BuyablesSatisfied:
		// We need to buy more shares. The predicate "still not satisfied
		// after adding n shares at the current price" is monotonically
		// decreasing in n, so the answer is one past the last true index.
		pred := func(n int) bool {
			try := shares.Clone()
			if n > 0 {
				try.merge(Lot{Price: currentPrice.RoundPenny(), Quantity: n})
			}
			report := distributePass(try, targets, currentPrice, minMargin)
			return !report.BuyablesSatisfied
		}
		n, ok := ExponentialBinarySearch(pred, 0, 32)
		if !ok {
			// The first pass said zero added shares leave a buyable target
			// unsatisfied; the predicate must agree at n=0.
			panic("distribute: buy search disagrees with first pass")
		}
		first.BuysNeeded = n + 1
		first.HasBuysNeeded = true
		return first

	case first.AllSatisfied && first.Unbound.Len() > 0:
		// We probably have extra shares. See how many of the cheapest can be
		// sold while keeping every target satisfied.
		pred := func(n int) bool {
			heldOut, err := shares.Bottom(n)
			if err != nil {
				panic(fmt.Sprintf("distribute: sell search out of range: %v", err))
			}
			try, err := shares.Sub(heldOut)
			if err != nil {
				panic(fmt.Sprintf("distribute: sell search underflow: %v", err))
			}
			report := distributePass(try, targets, currentPrice, minMargin)
			return report.AllSatisfied
		}
		nSell, _ := BinarySearch(pred, 0, shares.Len())
		if nSell == 0 {
			return first
		}
		heldOut, err := shares.Bottom(nSell)
		if err != nil {
			panic(fmt.Sprintf("distribute: held-out extraction failed: %v", err))
		}
		retained, err := shares.Sub(heldOut)
		if err != nil {
			panic(fmt.Sprintf("distribute: retained subtraction failed: %v", err))
		}
		report := distributePass(retained, targets, currentPrice, minMargin)
		report.Unbound = report.Unbound.Add(heldOut)
		return report

	default:
		return first
	}
}

// distributePass is a single pass of the distribute algorithm. It attempts
// to assign the given shares to all targets, starting from the most
// buy-constrained target and the cheapest shares.
func distributePass(shares *Shares, targets []*Target, currentPrice Money, minMargin Ratio) *DistributionReport {
	ordered := make([]*Target, len(targets))
	copy(ordered, targets)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.MaxBuyPrice.Equal(b.MaxBuyPrice) {
			return a.MaxBuyPrice.LessThan(b.MaxBuyPrice)
		}
		return a.SellPrice.LessThan(b.SellPrice)
	})

	report := &DistributionReport{
		TargetToAssignment: make(map[*Target]*Assignment, len(ordered)),
		AllSatisfied:       true,
		BuyablesSatisfied:  true,
	}

	remaining := shares.Clone()
	for _, target := range ordered {
		assignment := &Assignment{Target: target, Shares: EmptyShares()}
		report.TargetToAssignment[target] = assignment
		report.Assignments = append(report.Assignments, assignment)

		// Lots below the target's effective min buy price are held aside and
		// restored to the pool once this target is done, so later targets
		// may still use them.
		skipped := EmptyShares()
		for len(remaining.lots) > 0 {
			if target.Profit.LessThanOrEqual(assignment.Profit) {
				break
			}

			l := remaining.lots[0]
			minBuy := MinMoney(target.MinBuyPrice, currentPrice)
			if target.MaxBuyPrice.LessThan(l.Price) {
				// This lot is ineligible for this target, and since lots are
				// ascending so is every later one.
				break
			}
			if l.Price.LessThan(minBuy) {
				skipped.merge(l)
				remaining.lots = remaining.lots[1:]
				continue
			}

			profitNeeded := target.Profit.Sub(assignment.Profit)
			n, profit := lotSharesForProfit(l, profitNeeded, target.SellPrice, target.MinBuyPrice, minMargin)
			if n <= 0 {
				// An eligible, profit-short lot must always contribute
				// shares; anything else is a logic fault with no recovery.
				panic(fmt.Sprintf("distribute: eligible lot $%s x %d yields no shares for target %q",
					l.Price.value.StringFixed(2), l.Quantity, target.Name))
			}
			var err error
			remaining, err = remaining.SubLot(l.Price, n)
			if err != nil {
				panic(fmt.Sprintf("distribute: taking %d shares at %s: %v", n, l.Price, err))
			}
			assignment.Profit = assignment.Profit.Add(profit)
			assignment.Shares.merge(Lot{Price: l.Price, Quantity: n})
		}
		remaining = remaining.Add(skipped)

		if assignment.Profit.LessThan(target.Profit) {
			// BuyablesSatisfied only drops when buying more shares at the
			// current price could still satisfy this target.
			couldBuyToSatisfy := currentPrice.LessThanOrEqual(target.MaxBuyPrice)
			report.AllSatisfied = false
			report.BuyablesSatisfied = report.BuyablesSatisfied && !couldBuyToSatisfy
		}
	}

	report.Unbound = remaining
	return report
}
