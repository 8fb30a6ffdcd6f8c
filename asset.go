package stocks

import (
	"log"
	"sort"
	"time"
)

// MinSellGain is how many times higher in value the current price must be
// over a share's credited purchase price for the sale to count as profit.
var MinSellGain = R(1.01)

// Asset is one holding that can be divided into shares with a particular
// price at a point in time. It owns the share groups and the stages that
// generate sell targets, and it is the sole mutator of both within one
// update cycle.
//
// Cash, borrowing and tax accounting live outside this type; an Asset only
// reports what to buy or sell.
type Asset struct {
	Name     string
	Currency string
	Price    Money
	Shares   *SegregatedShares

	stages []Stage

	// cachedTargets and cachedReport are recomputed wholesale by
	// Distribute; the previous values are simply discarded.
	cachedTargets []*Target
	cachedReport  *DistributionReport

	// Recommendations from the last UpdateStrategy call.
	RecommendedBuy  int
	RecommendedSell *Shares
}

// NewAsset creates an asset with empty share groups and no stages.
func NewAsset(name, currency string, price Money) *Asset {
	return &Asset{
		Name:     name,
		Currency: currency,
		Price:    price,
		Shares:   NewSegregatedShares(),
	}
}

// AddStage appends a stage to the asset.
func (a *Asset) AddStage(s Stage) { a.stages = append(a.stages, s) }

// Stages returns the asset's stages.
func (a *Asset) Stages() []Stage { return a.stages }

// Targets returns the targets produced by the last update, sorted ascending
// by sell price.
func (a *Asset) Targets() []*Target { return a.cachedTargets }

// Report returns the cached distribution report, computing it first if no
// distribution has run yet.
func (a *Asset) Report() *DistributionReport {
	if a.cachedReport == nil {
		a.Distribute(nil)
	}
	return a.cachedReport
}

// NewCustomTarget adds a manual target to the asset's custom stage. It is a
// ConfigurationError if the asset has no custom stage.
func (a *Asset) NewCustomTarget(name string, profit, sellPrice, maxBuyPrice, minBuyPrice Money) (*Target, error) {
	for _, s := range a.stages {
		if c, ok := s.(*Custom); ok {
			return c.NewTarget(name, profit, sellPrice, maxBuyPrice, minBuyPrice), nil
		}
	}
	return nil, &ConfigurationError{Reason: "asset " + a.Name + " has no custom stage"}
}

// Distribute distributes shares among the current targets. This recomputes
// which shares are bound versus unbound as well as the assignments of bound
// shares to targets. When allShares is nil, the bound and unbound groups are
// distributed.
func (a *Asset) Distribute(allShares *Shares) *DistributionReport {
	if allShares == nil {
		allShares = a.Shares.Group(GroupUnbound).Add(a.Shares.Group(GroupBound))
	}
	report := Distribute(allShares, a.cachedTargets, a.Price, MinSellGain)

	bound, err := allShares.Sub(report.Unbound)
	if err != nil {
		// Distribute partitions its input exactly; anything else is a logic
		// fault.
		panic("asset: distribution report does not partition the input: " + err.Error())
	}
	a.Shares.SetGroup(GroupUnbound, report.Unbound)
	a.Shares.SetGroup(GroupBound, bound)
	a.cachedReport = report
	return report
}

// UpdateStrategy updates strategy around this asset based on the current
// price. It does not buy or sell shares, just recommends some to buy or
// sell.
func (a *Asset) UpdateStrategy(now time.Time) (recommendedSell *Shares, recommendedBuy int) {
	a.Distribute(nil)

	// Identify the shares held by targets that are about to be sold. They
	// are held out below so that they aren't considered for filling other
	// targets.
	soldShares := EmptyShares()
	for _, target := range a.cachedTargets {
		if a.Price.LessThan(target.SellPrice) {
			break
		}
		if assignment := a.cachedReport.Assignment(target); assignment != nil {
			soldShares = soldShares.Add(assignment.Shares)
		}
	}

	// Update stages and regenerate the target list from them.
	var targets []*Target
	for _, stage := range a.stages {
		stage.OnUpdate(now, a.Price, MinSellGain)
		targets = append(targets, stage.GenerateTargets()...)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].SellPrice.LessThan(targets[j].SellPrice)
	})
	a.cachedTargets = targets

	a.fundHorizonTargets()

	// Distribute shares and come up with recommendations. Shares sold for
	// reached targets are excluded during distribution but returned after.
	toDistribute, err := a.Shares.Group(GroupUnbound).Add(a.Shares.Group(GroupBound)).Sub(soldShares)
	if err != nil {
		panic("asset: sold shares are not a subset of held shares: " + err.Error())
	}
	report := a.Distribute(toDistribute)
	a.Shares.SetGroup(GroupUnbound, a.Shares.Group(GroupUnbound).Add(soldShares))

	a.RecommendedBuy = 0
	a.RecommendedSell = nil
	if report.HasBuysNeeded && report.BuysNeeded > 0 {
		a.RecommendedBuy = report.BuysNeeded
		a.RecommendedSell = soldShares
	} else if a.Shares.Group(GroupUnbound).Len() > 0 {
		// Sell unbound shares sufficiently below price.
		unboundToSell := report.Unbound.AsSplit([]Money{a.Price.DivRatio(MinSellGain)})[0]
		a.RecommendedSell = unboundToSell.Add(soldShares)
	}
	return a.RecommendedSell, a.RecommendedBuy
}

// fundHorizonTargets releases shares from the horizon group to targets that
// requested horizon funding, and notifies the stages that the request was
// handled.
func (a *Asset) fundHorizonTargets() {
	for _, target := range a.cachedTargets {
		if target.HorizonRequestID == nil {
			continue
		}
		id := *target.HorizonRequestID

		// Release as many shares from the horizon as it takes to fund this
		// target.
		horizon := a.Shares.Group(GroupHorizon)
		eligible := horizon.AsSplit([]Money{target.MaxBuyPrice})[0]
		toTake, profit := eligible.TopProfit(target.Profit, target.SellPrice, target.MinBuyPrice, MinSellGain)
		if profit.LessThan(target.Profit) {
			log.Printf("unable to fully fund target with horizon fund: %s", target)
		}

		remaining, err := horizon.Sub(toTake)
		if err != nil {
			panic("asset: horizon extraction is not a subset of the horizon group: " + err.Error())
		}
		a.Shares.SetGroup(GroupHorizon, remaining)
		a.Shares.SetGroup(GroupUnbound, a.Shares.Group(GroupUnbound).Add(toTake))

		for _, stage := range a.stages {
			stage.OnHorizonFilled(id)
		}
	}
}
