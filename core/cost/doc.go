// Package cost prices model calls from the token usage providers report.
//
// A [PriceTable] maps model names to [ModelCost] rates in USD per million
// tokens. Lookups fall back to the longest configured prefix, so dated
// snapshots such as "gpt-4o-mini-2024-07-18" share the rate of "gpt-4o-mini".
package cost
