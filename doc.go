// Package stocks provides the core engine for managing a single-asset
// trading strategy around precise share lots. It is designed to be
// deterministic and auditable: every quantity of money is exact decimal,
// every recommendation can be recomputed from the persisted state.
//
// The core functionalities include:
//   - Lot Ledger: Tracking owned shares as (price, quantity) lots kept
//     sorted ascending by price, with exact splitting, merging and
//     extraction operations.
//   - Targets and Distribution: Expressing sell goals as profit targets and
//     distributing the owned lots among them, reporting which targets are
//     satisfied and how many additional shares would need to be bought.
//   - Stages: Pluggable target generators. The ladder stage maintains a
//     geometric series of sell rungs that follow the price, while the
//     custom stage holds manually created targets.
//   - Asset Updates: A single update cycle that refreshes stages, funds
//     horizon requests from reserved shares, redistributes lots and emits
//     buy and sell recommendations.
//   - Data Persistence: Encoding and decoding the complete asset state to a
//     human-readable JSON document.
//
// This package serves as the foundational logic for the `stocks`
// command-line tool.
package stocks
