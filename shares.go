package stocks

import (
	"fmt"
	"sort"
	"strings"
)

// Lot is a number of shares bought together at one price.
type Lot struct {
	Price    Money
	Quantity int
}

// Shares is a collection of lots of a single asset.
//
// Lots are kept sorted ascending by price with at most one lot per price
// level; every operation that could break that property restores it. Prices
// do not carry an explicit currency: the kind of currency is context
// dependent and the caller should already know what it is.
type Shares struct {
	lots []Lot
}

// InsufficientSharesError reports a request for more shares than are
// available, either at one price level or across the whole collection.
type InsufficientSharesError struct {
	Price     Money
	Requested int
	Available int
	Overall   bool // shortage across the whole collection rather than one price level
}

func (e *InsufficientSharesError) Error() string {
	if e.Overall {
		return fmt.Sprintf("insufficient shares: requested %d, have %d", e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient shares at %s: requested %d, have %d", e.Price, e.Requested, e.Available)
}

// MissingPriceLevelError reports a subtraction that references a price level
// absent from the collection.
type MissingPriceLevelError struct {
	Price Money
}

func (e *MissingPriceLevelError) Error() string {
	return fmt.Sprintf("missing price level %s", e.Price)
}

// InvalidQuantityError reports an attempt to construct or set a lot with a
// zero or negative quantity.
type InvalidQuantityError struct {
	Price    Money
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d at %s", e.Quantity, e.Price)
}

// NewShares creates a Shares from the given lots. Prices are rounded to the
// penny and lots sharing a price are merged. A zero or negative quantity is
// an InvalidQuantityError.
func NewShares(lots ...Lot) (*Shares, error) {
	s := &Shares{}
	for _, l := range lots {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{Price: l.Price, Quantity: l.Quantity}
		}
		s.merge(Lot{Price: l.Price.RoundPenny(), Quantity: l.Quantity})
	}
	return s, nil
}

// EmptyShares creates a Shares holding nothing.
func EmptyShares() *Shares { return &Shares{} }

// Len returns the number of shares, not the number of distinct price levels.
func (s *Shares) Len() int {
	n := 0
	for _, l := range s.lots {
		n += l.Quantity
	}
	return n
}

// Lots returns a copy of the lots, ascending by price.
func (s *Shares) Lots() []Lot {
	out := make([]Lot, len(s.lots))
	copy(out, s.lots)
	return out
}

// Value returns the total value of all shares at the given price.
func (s *Shares) Value(price Money) Money { return price.MulInt(s.Len()) }

// TotalBuyCost returns the total amount of money paid to purchase all
// current shares.
func (s *Shares) TotalBuyCost() Money {
	var total Money
	for _, l := range s.lots {
		total = total.Add(l.Price.MulInt(l.Quantity))
	}
	return total
}

// Clone returns a deep copy.
func (s *Shares) Clone() *Shares {
	return &Shares{lots: s.Lots()}
}

// merge adds a lot in place, combining with an existing lot at the same
// price. Assumes l.Quantity > 0.
func (s *Shares) merge(l Lot) {
	for i := range s.lots {
		if s.lots[i].Price.Equal(l.Price) {
			s.lots[i].Quantity += l.Quantity
			return
		}
	}
	s.lots = append(s.lots, l)
	s.sort()
}

// sort restores the ascending-by-price invariant.
func (s *Shares) sort() {
	sort.SliceStable(s.lots, func(i, j int) bool {
		return s.lots[i].Price.LessThan(s.lots[j].Price)
	})
}

// prune removes zero-quantity lots arising from internal arithmetic. A
// negative quantity is a programming error.
func (s *Shares) prune() {
	kept := s.lots[:0]
	for _, l := range s.lots {
		if l.Quantity < 0 {
			panic(fmt.Sprintf("lot has negative quantity: %d @ %s", l.Quantity, l.Price))
		}
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	s.lots = kept
}

// Add merges the other shares into a copy of this one.
func (s *Shares) Add(other *Shares) *Shares {
	result := s.Clone()
	for _, l := range other.lots {
		result.merge(l)
	}
	return result
}

// AddLot merges a single lot into a copy of this Shares. A zero or negative
// quantity is an InvalidQuantityError.
func (s *Shares) AddLot(price Money, quantity int) (*Shares, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{Price: price, Quantity: quantity}
	}
	result := s.Clone()
	result.merge(Lot{Price: price.RoundPenny(), Quantity: quantity})
	return result, nil
}

// Sub removes all of other's shares from a copy of this one. It fails with
// MissingPriceLevelError if other holds a price level absent from this, or
// InsufficientSharesError if a level holds fewer shares than requested.
func (s *Shares) Sub(other *Shares) (*Shares, error) {
	result := s.Clone()
	for _, l := range other.lots {
		found := false
		for i := range result.lots {
			if result.lots[i].Price.Equal(l.Price) {
				if result.lots[i].Quantity < l.Quantity {
					return nil, &InsufficientSharesError{
						Price:     l.Price,
						Requested: l.Quantity,
						Available: result.lots[i].Quantity,
					}
				}
				result.lots[i].Quantity -= l.Quantity
				found = true
				break
			}
		}
		if !found {
			return nil, &MissingPriceLevelError{Price: l.Price}
		}
	}
	result.prune()
	return result, nil
}

// SubLot removes a single lot. See Sub.
func (s *Shares) SubLot(price Money, quantity int) (*Shares, error) {
	other, err := NewShares(Lot{Price: price, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	return s.Sub(other)
}

// firstShares extracts the first n shares from the given lots, splitting the
// last lot if n falls inside it.
func firstShares(lots []Lot, n int) ([]Lot, error) {
	remaining := n
	var extracted []Lot
	for _, l := range lots {
		if remaining == 0 {
			break
		}
		if remaining < l.Quantity {
			extracted = append(extracted, Lot{Price: l.Price, Quantity: remaining})
			remaining = 0
			break
		}
		extracted = append(extracted, l)
		remaining -= l.Quantity
	}
	if remaining != 0 {
		return nil, &InsufficientSharesError{Requested: n, Available: n - remaining, Overall: true}
	}
	return extracted, nil
}

// Bottom extracts the n cheapest shares as a new Shares.
func (s *Shares) Bottom(n int) (*Shares, error) {
	extracted, err := firstShares(s.lots, n)
	if err != nil {
		return nil, err
	}
	return &Shares{lots: extracted}, nil
}

// Top extracts the n most expensive shares as a new Shares.
func (s *Shares) Top(n int) (*Shares, error) {
	reversed := make([]Lot, 0, len(s.lots))
	for i := len(s.lots) - 1; i >= 0; i-- {
		reversed = append(reversed, s.lots[i])
	}
	extracted, err := firstShares(reversed, n)
	if err != nil {
		return nil, err
	}
	result := &Shares{lots: extracted}
	result.sort()
	return result, nil
}

// Slice returns (end - start) shares counted from the cheapest.
func (s *Shares) Slice(start, end int) (*Shares, error) {
	lowest, err := s.Bottom(start)
	if err != nil {
		return nil, err
	}
	rest, err := s.Sub(lowest)
	if err != nil {
		return nil, err
	}
	return rest.Bottom(end - start)
}

// AsSplit partitions the shares into len(levels)+1 buckets by ascending
// price thresholds; a lot belongs to the first bucket whose threshold is not
// below its price. Buckets may be empty.
func (s *Shares) AsSplit(levels []Money) []*Shares {
	if len(levels) == 0 {
		return []*Shares{s.Clone()}
	}

	splitPoints := make([]Money, len(levels))
	copy(splitPoints, levels)
	sort.SliceStable(splitPoints, func(i, j int) bool {
		return splitPoints[i].LessThan(splitPoints[j])
	})

	var groups []*Shares
	current := EmptyShares()
	upper, hasUpper := splitPoints[0], true
	splitPoints = splitPoints[1:]
	for _, l := range s.lots {
		for hasUpper && l.Price.GreaterThan(upper) {
			if len(splitPoints) > 0 {
				upper = splitPoints[0]
				splitPoints = splitPoints[1:]
			} else {
				hasUpper = false
			}
			groups = append(groups, current)
			current = EmptyShares()
		}
		current.lots = append(current.lots, l)
	}
	groups = append(groups, current)
	for len(groups) < len(levels)+1 {
		groups = append(groups, EmptyShares())
	}
	return groups
}

// Change sets the quantity of shares at the indicated price level; zero
// removes the level. A negative quantity is an InvalidQuantityError.
func (s *Shares) Change(price Money, quantity int) error {
	if quantity < 0 {
		return &InvalidQuantityError{Price: price, Quantity: quantity}
	}
	price = price.RoundPenny()
	for i := range s.lots {
		if s.lots[i].Price.Equal(price) {
			if quantity == 0 {
				s.lots = append(s.lots[:i], s.lots[i+1:]...)
			} else {
				s.lots[i].Quantity = quantity
			}
			return nil
		}
	}
	if quantity != 0 {
		s.merge(Lot{Price: price, Quantity: quantity})
	}
	return nil
}

// MakeMean returns a new Shares where every share has the same price, the
// mean of this one's. This conserves total purchase cost, rounding the mean
// up to the penny.
func (s *Shares) MakeMean() *Shares {
	n := s.Len()
	if n == 0 {
		return EmptyShares()
	}
	price := s.TotalBuyCost().DivRatio(R(n)).CeilPenny()
	return &Shares{lots: []Lot{{Price: price, Quantity: n}}}
}

// Take removes all shares from this and returns them.
func (s *Shares) Take() *Shares {
	taken := &Shares{lots: s.lots}
	s.lots = nil
	return taken
}

// ShiftPrices shifts the prices of all lots by the given delta.
func (s *Shares) ShiftPrices(delta Money) {
	for i := range s.lots {
		s.lots[i].Price = s.lots[i].Price.Add(delta)
	}
	s.sort()
}

// ScalePrices scales the prices of all lots by the given factor.
func (s *Shares) ScalePrices(factor Ratio) {
	for i := range s.lots {
		s.lots[i].Price = s.lots[i].Price.MulRatio(factor)
	}
	s.sort()
}

// ScaleQuantities scales the number of shares by the given factor. Note that
// reverse splits can cause rounding errors.
func (s *Shares) ScaleQuantities(factor float64) {
	for i := range s.lots {
		s.lots[i].Quantity = int(float64(s.lots[i].Quantity)*factor + 0.5)
	}
	s.prune()
	s.sort()
}

// ComputeProfit computes the profit from selling all these shares at the
// given price.
//
// minMargin caps the credited purchase price at sellPrice/minMargin, so a
// lot bought very cheaply is credited as though it was bought at that ratio.
// minBuyPrice is an absolute floor on the credited purchase price regardless
// of the actual one.
func (s *Shares) ComputeProfit(sellPrice, minBuyPrice Money, minMargin Ratio) Money {
	var total Money
	for _, l := range s.lots {
		adjustedBuy := MinMoney(l.Price, sellPrice.DivRatio(minMargin))
		perShare := sellPrice.Sub(MaxMoney(adjustedBuy, minBuyPrice))
		total = total.Add(perShare.MulInt(l.Quantity))
	}
	return total
}

// TopProfit gets, starting from the most expensive shares, the minimum set
// of shares needed to fund the given profit goal. Returns the extracted
// shares and the profit they realize, which may fall short of the goal.
func (s *Shares) TopProfit(profit, sellPrice, minBuyPrice Money, minMargin Ratio) (*Shares, Money) {
	extracted := EmptyShares()
	var accum Money
	for i := len(s.lots) - 1; i >= 0; i-- {
		if profit.LessThanOrEqual(accum) {
			break
		}
		l := s.lots[i]
		n, lotProfit := lotSharesForProfit(l, profit.Sub(accum), sellPrice, minBuyPrice, minMargin)
		accum = accum.Add(lotProfit)
		if n > 0 {
			extracted.merge(Lot{Price: l.Price, Quantity: n})
		}
	}
	return extracted, accum
}

// Validate checks that no lot carries a zero or negative quantity.
func (s *Shares) Validate() error {
	for _, l := range s.lots {
		if l.Quantity <= 0 {
			return &InvalidQuantityError{Price: l.Price, Quantity: l.Quantity}
		}
	}
	return nil
}

func (s *Shares) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, l := range s.lots {
		fmt.Fprintf(&b, "$%s x %d", l.Price.value.StringFixed(2), l.Quantity)
		if i < len(s.lots)-1 {
			b.WriteString(", ")
		}
	}
	b.WriteString("]")
	return b.String()
}

// lotSharesForProfit computes the number of shares from one lot needed to
// reach the given profit, capped at the lot's quantity. If the lot cannot
// reach the profit on its own, it returns the share count that maximizes
// profit. Selling at or below the purchase price yields (0, 0).
//
// Returns the share count and the profit those shares realize, credited with
// the same minMargin/minBuyPrice adjustment as Shares.ComputeProfit.
func lotSharesForProfit(l Lot, profit, sellPrice, minBuyPrice Money, minMargin Ratio) (int, Money) {
	if sellPrice.LessThanOrEqual(l.Price) {
		return 0, Money{}
	}
	adjustedBuy := MinMoney(l.Price, sellPrice.DivRatio(minMargin))
	perShare := sellPrice.Sub(MaxMoney(adjustedBuy, minBuyPrice))
	n := int(profit.value.Div(perShare.value).Ceil().IntPart())
	if n > l.Quantity {
		n = l.Quantity
	}
	return n, perShare.MulInt(n)
}
