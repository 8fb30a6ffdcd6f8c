package stocks

import "testing"

func TestDistributeAssignsConstrainedTargetsFirst(t *testing.T) {
	// Three targets wanting $35 each. The middle one cannot credit shares
	// below $40, so it must get the expensive lot even though another target
	// processed earlier could also use it.
	shares := sh(t, 0.05, 5, 0.10, 2, 40, 5)
	t1 := NewTarget("t1", M(35, ""), M(50, ""), M(50, ""), M(0, ""))
	t3 := NewTarget("t3", M(35, ""), M(48, ""), M(47, ""), M(40, ""))
	t2 := NewTarget("t2", M(35, ""), M(45, ""), M(44, ""), M(0, ""))

	report := Distribute(shares, []*Target{t1, t3, t2}, M(40, ""), R(1.01))

	if !report.AllSatisfied {
		t.Fatal("expected every target to be satisfied")
	}
	if got, want := report.Assignment(t3).Shares.String(), "[$40.00 x 5]"; got != want {
		t.Errorf("t3 shares = %s, want %s", got, want)
	}
	if got, want := report.Assignment(t3).Profit, M(40, ""); !got.Equal(want) {
		t.Errorf("t3 profit = %s, want %s", got, want)
	}
	// After the surplus correction the cheapest lot is fully released and
	// the cheap targets run on the $0.10 shares.
	if got, want := report.Assignment(t1).Shares.String(), "[$0.10 x 1]"; got != want {
		t.Errorf("t1 shares = %s, want %s", got, want)
	}
	if got, want := report.Assignment(t2).Shares.String(), "[$0.10 x 1]"; got != want {
		t.Errorf("t2 shares = %s, want %s", got, want)
	}
	if got, want := report.Unbound.String(), "[$0.05 x 5]"; got != want {
		t.Errorf("unbound = %s, want %s", got, want)
	}
	if report.HasBuysNeeded {
		t.Error("no buys should be needed")
	}
}

func TestDistributeComputesMinimalBuys(t *testing.T) {
	// The target refuses credit below $40, so the cheap shares cannot help
	// and the only way to satisfy it is to buy at the current price. Each
	// bought share credits 45 - 40 = 5, so $35 takes exactly 7 shares.
	shares := sh(t, 0.10, 2)
	target := NewTarget("t", M(35, ""), M(45, ""), M(44, ""), M(40, ""))
	price, margin := M(40, ""), R(1.01)

	report := Distribute(shares, []*Target{target}, price, margin)

	if report.AllSatisfied {
		t.Fatal("the target cannot be satisfied without buying")
	}
	if !report.HasBuysNeeded {
		t.Fatal("expected a buy recommendation")
	}
	if report.BuysNeeded != 7 {
		t.Errorf("BuysNeeded = %d, want 7", report.BuysNeeded)
	}

	// Cross-check minimality against a plain linear scan.
	satisfiedWith := func(n int) bool {
		try := shares.Clone()
		if n > 0 {
			var err error
			try, err = try.AddLot(price, n)
			if err != nil {
				t.Fatal(err)
			}
		}
		return distributePass(try, []*Target{target}, price, margin).BuyablesSatisfied
	}
	if satisfiedWith(report.BuysNeeded - 1) {
		t.Errorf("%d buys already satisfy the target", report.BuysNeeded-1)
	}
	if !satisfiedWith(report.BuysNeeded) {
		t.Errorf("%d buys do not satisfy the target", report.BuysNeeded)
	}
}

func TestDistributeConservesShares(t *testing.T) {
	shares := sh(t, 0.05, 5, 0.10, 2, 20, 3, 40, 5, 41, 1)
	targets := []*Target{
		NewTarget("a", M(35, ""), M(50, ""), M(50, ""), M(0, "")),
		NewTarget("b", M(35, ""), M(48, ""), M(47, ""), M(40, "")),
		NewTarget("c", M(35, ""), M(45, ""), M(44, ""), M(0, "")),
	}

	report := Distribute(shares, targets, M(40, ""), R(1.01))

	total := report.Unbound.Clone()
	for _, assignment := range report.Assignments {
		total = total.Add(assignment.Shares)
	}
	if total.String() != shares.String() {
		t.Errorf("assignments plus unbound = %s, want the input %s", total, shares)
	}
	// The input is never mutated.
	if shares.String() != sh(t, 0.05, 5, 0.10, 2, 20, 3, 40, 5, 41, 1).String() {
		t.Errorf("input mutated: %s", shares)
	}
}

func TestDistributeIsIdempotentOnceSatisfied(t *testing.T) {
	shares := sh(t, 0.10, 4, 40, 5)
	targets := []*Target{
		NewTarget("a", M(35, ""), M(50, ""), M(50, ""), M(0, "")),
		NewTarget("b", M(35, ""), M(48, ""), M(47, ""), M(40, "")),
	}
	price, margin := M(40, ""), R(1.01)

	first := Distribute(shares, targets, price, margin)
	if !first.AllSatisfied {
		t.Fatal("setup should satisfy every target")
	}

	second := Distribute(shares, targets, price, margin)
	for _, target := range targets {
		a, b := first.Assignment(target), second.Assignment(target)
		if a.Shares.String() != b.Shares.String() {
			t.Errorf("%s: assignment changed from %s to %s", target.Name, a.Shares, b.Shares)
		}
		if !a.Profit.Equal(b.Profit) {
			t.Errorf("%s: profit changed from %s to %s", target.Name, a.Profit, b.Profit)
		}
	}
	if first.Unbound.String() != second.Unbound.String() {
		t.Errorf("unbound changed from %s to %s", first.Unbound, second.Unbound)
	}
}

func TestDistributeUnsatisfiableTarget(t *testing.T) {
	// The target's max buy price is below the current price, so buying
	// cannot help and no buy count should be reported.
	shares := sh(t, 0.10, 1)
	target := NewTarget("t", M(35, ""), M(45, ""), M(30, ""), M(25, ""))

	report := Distribute(shares, []*Target{target}, M(40, ""), R(1.01))

	if report.AllSatisfied {
		t.Error("the target cannot be satisfied")
	}
	if !report.BuyablesSatisfied {
		t.Error("no buyable target is unsatisfied")
	}
	if report.HasBuysNeeded {
		t.Error("buying cannot satisfy this target")
	}
}

func TestDistributeNoTargets(t *testing.T) {
	shares := sh(t, 1, 3)
	report := Distribute(shares, nil, M(40, ""), R(1.01))
	if !report.AllSatisfied || !report.BuyablesSatisfied {
		t.Error("an empty target list is trivially satisfied")
	}
	if report.Unbound.String() != shares.String() {
		t.Errorf("unbound = %s, want all shares", report.Unbound)
	}
}

func TestDistributeReportOrder(t *testing.T) {
	ta := NewTarget("a", M(1, ""), M(50, ""), M(50, ""), M(0, ""))
	tb := NewTarget("b", M(1, ""), M(45, ""), M(44, ""), M(0, ""))
	tc := NewTarget("c", M(1, ""), M(48, ""), M(44, ""), M(0, ""))

	report := Distribute(EmptyShares(), []*Target{ta, tb, tc}, M(40, ""), R(1.01))

	// Ascending (max buy price, sell price), regardless of input order.
	want := []*Target{tb, tc, ta}
	for i, assignment := range report.Assignments {
		if assignment.Target != want[i] {
			t.Errorf("Assignments[%d] = %s, want %s", i, assignment.Target.Name, want[i].Name)
		}
	}
}
