package stocks

import (
	"fmt"

	"github.com/google/uuid"
)

// Target is a sell rule: sell shares at SellPrice to realize at least
// Profit.
//
// Targets are transient: stages regenerate them every update cycle, and the
// distribution engine keys on target identity (the pointer), never on value
// equality. Only the stage definitions that generate them are persisted as
// the long-term source of truth.
type Target struct {
	// Human-readable name used to identify this target.
	Name string

	// Amount of profit still needed to satisfy this target.
	Profit Money

	// Price at which to sell.
	SellPrice Money

	// Maximum price of shares that can be assigned to this target.
	MaxBuyPrice Money

	// Minimum price of shares that can be assigned to this target and get
	// full credit. Cheaper shares are credited only (SellPrice - MinBuyPrice)
	// per share.
	MinBuyPrice Money

	// Non-nil while this target is requesting capital out of the horizon
	// fund; cleared once the request has been granted.
	HorizonRequestID *uuid.UUID
}

// NewTarget creates a target with no horizon funding request.
func NewTarget(name string, profit, sellPrice, maxBuyPrice, minBuyPrice Money) *Target {
	return &Target{
		Name:        name,
		Profit:      profit,
		SellPrice:   sellPrice,
		MaxBuyPrice: maxBuyPrice,
		MinBuyPrice: minBuyPrice,
	}
}

// ApplyPriceTransform rewrites every price on the target through the given
// pure transform, such as a decay adjustment.
func (t *Target) ApplyPriceTransform(fn func(Money) Money) {
	t.SellPrice = fn(t.SellPrice)
	t.MaxBuyPrice = fn(t.MaxBuyPrice)
	t.MinBuyPrice = fn(t.MinBuyPrice)
}

func (t *Target) String() string {
	return fmt.Sprintf("Target[name: %s, profit: %s, sellPrice: %s, maxBuyPrice: %s, minBuyPrice: %s]",
		t.Name, t.Profit, t.SellPrice, t.MaxBuyPrice, t.MinBuyPrice)
}
