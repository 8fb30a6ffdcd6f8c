package stocks

import (
	"time"

	"github.com/google/uuid"
)

// Stage generates sell targets for an asset and evolves them over time.
//
// Stages never call the distribution engine themselves: they only produce
// Target lists and read assignments back through the owning asset's cached
// report.
type Stage interface {
	// Kind returns the stage kind discriminator used in persisted state.
	Kind() string

	// OnUpdate advances the stage to the given moment and price. The current
	// time is an explicit input so the stage stays deterministic and
	// testable without wall-clock mocking.
	OnUpdate(now time.Time, currentPrice Money, minMargin Ratio)

	// GenerateTargets returns the stage's current targets. Targets are
	// regenerated wholesale each cycle.
	GenerateTargets() []*Target

	// OnHorizonFilled tells the stage that a target it generated with this
	// horizon funding request has been granted.
	OnHorizonFilled(id uuid.UUID)

	// HighestReadyPrice returns the highest price the stage is already
	// prepared for.
	HighestReadyPrice() Money

	// ScaleProfitLevels scales the stage's profit levels by the given
	// factor, where that makes sense for the stage kind.
	ScaleProfitLevels(factor float64, minMargin Ratio)

	// ResetProfitLevels resets profit adjustment baselines to the given
	// price, where that makes sense for the stage kind.
	ResetProfitLevels(resetPrice Money)

	// ApplyPriceTransform rewrites every price the stage tracks through the
	// given pure transform, such as a decay adjustment.
	ApplyPriceTransform(fn func(Money) Money)
}

// ConfigurationError reports a request that the current configuration cannot
// serve, such as creating a manual target when no custom stage exists or
// loading a stage of an unknown kind.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}
