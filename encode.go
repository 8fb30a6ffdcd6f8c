package stocks

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// This file persists asset state as a single JSON document. Money values
// serialize as decimal strings, never binary floats, so reloading never
// drifts. Rung definitions are written with a stable integer id (their
// position in the ladder's ordered list) and rungs cross-reference that id,
// so they re-link to their definition after reload.

// MarshalJSON writes the lots as [price, quantity] pairs, ascending by
// price.
func (s *Shares) MarshalJSON() ([]byte, error) {
	pairs := make([][]any, 0, len(s.lots))
	for _, l := range s.lots {
		pairs = append(pairs, []any{l.Price, l.Quantity})
	}
	return json.Marshal(pairs)
}

func (s *Shares) UnmarshalJSON(data []byte) error {
	var raw [][2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("format error in share pairs: %w", err)
	}
	lots := make([]Lot, 0, len(raw))
	for _, pair := range raw {
		var l Lot
		if err := json.Unmarshal(pair[0], &l.Price); err != nil {
			return fmt.Errorf("format error in share pair price: %w", err)
		}
		if err := json.Unmarshal(pair[1], &l.Quantity); err != nil {
			return fmt.Errorf("format error in share pair quantity: %w", err)
		}
		lots = append(lots, l)
	}
	decoded, err := NewShares(lots...)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

func (t *Target) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("name", t.Name)
	w.Append("profit", t.Profit)
	w.Append("sellPrice", t.SellPrice)
	w.Append("maxBuyPrice", t.MaxBuyPrice)
	w.Append("minBuyPrice", t.MinBuyPrice)
	w.Optional("horizonRequestID", t.HorizonRequestID)
	return w.MarshalJSON()
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var jt struct {
		Name             string     `json:"name"`
		Profit           Money      `json:"profit"`
		SellPrice        Money      `json:"sellPrice"`
		MaxBuyPrice      Money      `json:"maxBuyPrice"`
		MinBuyPrice      Money      `json:"minBuyPrice"`
		HorizonRequestID *uuid.UUID `json:"horizonRequestID"`
	}
	if err := json.Unmarshal(data, &jt); err != nil {
		return fmt.Errorf("format error in target: %w", err)
	}
	t.Name = jt.Name
	t.Profit = jt.Profit
	t.SellPrice = jt.SellPrice
	t.MaxBuyPrice = jt.MaxBuyPrice
	t.MinBuyPrice = jt.MinBuyPrice
	t.HorizonRequestID = jt.HorizonRequestID
	return nil
}

func encodeRungDef(id int, d *RungDef) (json.RawMessage, error) {
	var w jsonObjectWriter
	w.Append("id", id)
	w.Append("sellTimes", d.SellTimes)
	w.Append("profit", d.Profit)
	w.Append("minProfit", d.MinProfit)
	w.Append("minShareProfitRatio", d.MinShareProfitRatio)
	w.Optional("disableTrendThreshold", d.DisableTrendThreshold)
	w.Optional("disableDays", d.DisableDays)
	return w.MarshalJSON()
}

func encodeRung(defID int, r *Rung) (json.RawMessage, error) {
	var w jsonObjectWriter
	w.Append("definitionID", defID)
	w.Append("target", r.Target)
	w.Append("startPrice", r.StartPrice)
	w.Append("lowestPrice", r.LowestPrice)
	w.Append("disabled", r.Disabled)
	return w.MarshalJSON()
}

func (l *Ladder) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("stageKind", l.Kind())

	defs := make([]json.RawMessage, 0, len(l.defs))
	for i, d := range l.defs {
		raw, err := encodeRungDef(i, d)
		if err != nil {
			return nil, err
		}
		defs = append(defs, raw)
	}
	w.Append("defs", defs)

	rungs := make(map[string][]json.RawMessage)
	for tier := range l.defs {
		if len(l.rungs[tier]) == 0 {
			continue
		}
		var encoded []json.RawMessage
		for _, r := range l.rungs[tier] {
			raw, err := encodeRung(tier, r)
			if err != nil {
				return nil, err
			}
			encoded = append(encoded, raw)
		}
		rungs[strconv.Itoa(tier)] = encoded
	}
	w.Append("rungs", rungs)

	w.Append("rungFrequency", l.frequency)
	if l.hasHorizon {
		w.Append("horizon", l.horizon)
	}
	if l.hasTrend {
		w.Append("minTrendPoint", l.minTrendPoint)
		w.Append("maxTrendPoint", l.maxTrendPoint)
	}
	w.Append("paused", l.paused)
	w.Append("location", l.location.String())
	return w.MarshalJSON()
}

func decodeLadder(data []byte) (*Ladder, error) {
	var jl struct {
		Defs []struct {
			ID                    int            `json:"id"`
			SellTimes             Ratio          `json:"sellTimes"`
			Profit                Money          `json:"profit"`
			MinProfit             Money          `json:"minProfit"`
			MinShareProfitRatio   Ratio          `json:"minShareProfitRatio"`
			DisableTrendThreshold *Ratio         `json:"disableTrendThreshold"`
			DisableDays           []time.Weekday `json:"disableDays"`
		} `json:"defs"`
		Rungs map[string][]struct {
			DefinitionID int     `json:"definitionID"`
			Target       *Target `json:"target"`
			StartPrice   Money   `json:"startPrice"`
			LowestPrice  Money   `json:"lowestPrice"`
			Disabled     bool    `json:"disabled"`
		} `json:"rungs"`
		RungFrequency Ratio  `json:"rungFrequency"`
		Horizon       *Money `json:"horizon"`
		MinTrendPoint *Money `json:"minTrendPoint"`
		MaxTrendPoint *Money `json:"maxTrendPoint"`
		Paused        bool   `json:"paused"`
		Location      string `json:"location"`
	}
	if err := json.Unmarshal(data, &jl); err != nil {
		return nil, fmt.Errorf("format error in ladder: %w", err)
	}

	defs := make([]*RungDef, 0, len(jl.Defs))
	idToTier := make(map[int]int, len(jl.Defs))
	for tier, jd := range jl.Defs {
		defs = append(defs, &RungDef{
			SellTimes:             jd.SellTimes,
			Profit:                jd.Profit,
			MinProfit:             jd.MinProfit,
			MinShareProfitRatio:   jd.MinShareProfitRatio,
			DisableTrendThreshold: jd.DisableTrendThreshold,
			DisableDays:           jd.DisableDays,
		})
		idToTier[jd.ID] = tier
	}

	var location *time.Location
	if jl.Location != "" {
		loc, err := time.LoadLocation(jl.Location)
		if err != nil {
			return nil, fmt.Errorf("unknown ladder location %q: %w", jl.Location, err)
		}
		location = loc
	}

	ladder := NewLadder(defs, jl.RungFrequency, location)
	for _, jrungs := range jl.Rungs {
		for _, jr := range jrungs {
			tier, ok := idToTier[jr.DefinitionID]
			if !ok {
				return nil, fmt.Errorf("rung references unknown definition id %d", jr.DefinitionID)
			}
			ladder.rungs[tier] = append(ladder.rungs[tier], &Rung{
				Target:      jr.Target,
				StartPrice:  jr.StartPrice,
				LowestPrice: jr.LowestPrice,
				Disabled:    jr.Disabled,
			})
		}
	}

	if jl.Horizon != nil {
		ladder.horizon = *jl.Horizon
		ladder.hasHorizon = true
	}
	if jl.MinTrendPoint != nil && jl.MaxTrendPoint != nil {
		ladder.minTrendPoint = *jl.MinTrendPoint
		ladder.maxTrendPoint = *jl.MaxTrendPoint
		ladder.hasTrend = true
	}
	ladder.paused = jl.Paused
	return ladder, nil
}

func (c *Custom) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("stageKind", c.Kind())
	w.Append("targets", c.targets)
	return w.MarshalJSON()
}

func decodeCustom(data []byte) (*Custom, error) {
	var jc struct {
		Targets []*Target `json:"targets"`
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return nil, fmt.Errorf("format error in custom stage: %w", err)
	}
	return &Custom{targets: jc.Targets}, nil
}

// DecodeStage decodes a stage of any kind, dispatching on the stageKind
// discriminator. An unknown kind is a ConfigurationError.
func DecodeStage(data []byte) (Stage, error) {
	var jk struct {
		StageKind string `json:"stageKind"`
	}
	if err := json.Unmarshal(data, &jk); err != nil {
		return nil, fmt.Errorf("format error in stage: %w", err)
	}
	switch jk.StageKind {
	case "ladder":
		return decodeLadder(data)
	case "custom":
		return decodeCustom(data)
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown stage kind %q", jk.StageKind)}
	}
}

func (a *Asset) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("name", a.Name)
	w.Append("currency", a.Currency)
	w.Append("price", a.Price)
	w.Append("shares", a.Shares.groups)
	stages := make([]json.RawMessage, 0, len(a.stages))
	for _, s := range a.stages {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s stage: %w", s.Kind(), err)
		}
		stages = append(stages, raw)
	}
	w.Append("stages", stages)
	return w.MarshalJSON()
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var ja struct {
		Name     string            `json:"name"`
		Currency string            `json:"currency"`
		Price    Money             `json:"price"`
		Shares   []*Shares         `json:"shares"`
		Stages   []json.RawMessage `json:"stages"`
	}
	if err := json.Unmarshal(data, &ja); err != nil {
		return fmt.Errorf("format error in asset: %w", err)
	}
	if len(ja.Shares) != numShareGroups {
		return fmt.Errorf("asset %q has %d share groups, want %d", ja.Name, len(ja.Shares), numShareGroups)
	}

	decoded := NewAsset(ja.Name, ja.Currency, ja.Price)
	decoded.Shares = &SegregatedShares{groups: ja.Shares}
	for _, raw := range ja.Stages {
		stage, err := DecodeStage(raw)
		if err != nil {
			return err
		}
		decoded.AddStage(stage)
	}
	*a = *decoded
	return nil
}

// EncodeAsset writes the asset state as an indented JSON document.
func EncodeAsset(w io.Writer, a *Asset) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode asset %q: %w", a.Name, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// DecodeAsset reads an asset state document written by EncodeAsset.
func DecodeAsset(r io.Reader) (*Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read asset state: %w", err)
	}
	var a Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
