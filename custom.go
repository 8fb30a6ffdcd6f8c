package stocks

import (
	"time"

	"github.com/google/uuid"
)

// Custom is a stage whose targets are created manually.
type Custom struct {
	targets []*Target
}

// NewCustom creates an empty custom stage.
func NewCustom() *Custom { return &Custom{} }

func (c *Custom) Kind() string { return "custom" }

// NewTarget adds a manual target to this stage.
func (c *Custom) NewTarget(name string, profit, sellPrice, maxBuyPrice, minBuyPrice Money) *Target {
	target := NewTarget(name, profit, sellPrice, maxBuyPrice, minBuyPrice)
	c.targets = append(c.targets, target)
	return target
}

// OnUpdate drops targets whose sell price has been reached and keeps the
// remaining ones reachable by clamping their min buy price to the current
// price.
func (c *Custom) OnUpdate(_ time.Time, currentPrice Money, _ Ratio) {
	kept := c.targets[:0]
	for _, t := range c.targets {
		if t.SellPrice.GreaterThan(currentPrice) {
			kept = append(kept, t)
		}
	}
	c.targets = kept
	for _, t := range c.targets {
		t.MinBuyPrice = MinMoney(t.MinBuyPrice, currentPrice)
	}
}

func (c *Custom) GenerateTargets() []*Target { return c.targets }

// OnHorizonFilled does nothing; manual targets never request horizon
// funding.
func (c *Custom) OnHorizonFilled(uuid.UUID) {}

// HighestReadyPrice is effectively unbounded: custom targets don't move or
// get spontaneously created.
func (c *Custom) HighestReadyPrice() Money { return M(9999999, "") }

// ScaleProfitLevels does nothing; manual profits are not adjusted.
func (c *Custom) ScaleProfitLevels(float64, Ratio) {}

// ResetProfitLevels does nothing; manual profits are not adjusted.
func (c *Custom) ResetProfitLevels(Money) {}

func (c *Custom) ApplyPriceTransform(fn func(Money) Money) {
	for _, t := range c.targets {
		t.ApplyPriceTransform(fn)
	}
}
