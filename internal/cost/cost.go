// Package cost tracks provider credit consumption and converts credits to
// dollar estimates.
package cost

import "sync/atomic"

// Rates holds provider billing units: flat credits per search call and per
// collect call, regardless of result count.
type Rates struct {
	PerSearch    int     `yaml:"per_search" mapstructure:"per_search"`
	PerCollect   int     `yaml:"per_collect" mapstructure:"per_collect"`
	USDPerCredit float64 `yaml:"usd_per_credit" mapstructure:"usd_per_credit"`
}

// DefaultRates returns the default provider pricing.
func DefaultRates() Rates {
	return Rates{PerSearch: 1, PerCollect: 5, USDPerCredit: 0.002}
}

// Searches returns the credit cost of n search calls.
func (r Rates) Searches(n int) int {
	return n * r.PerSearch
}

// Collects returns the credit cost of n collect calls.
func (r Rates) Collects(n int) int {
	return n * r.PerCollect
}

// USD converts a credit total to dollars.
func (r Rates) USD(credits int) float64 {
	return float64(credits) * r.USDPerCredit
}

// Ledger is the running credit counter for one run. Counters only ever
// increase and are safe for concurrent writers. Dry runs increment the same
// counters without any network call, so estimates and live runs agree.
type Ledger struct {
	search  atomic.Int64
	collect atomic.Int64
	rates   Rates
}

// NewLedger creates a ledger billing at the given rates.
func NewLedger(rates Rates) *Ledger {
	return &Ledger{rates: rates}
}

// AddSearch records one search call and returns its credit cost.
func (l *Ledger) AddSearch() int {
	l.search.Add(int64(l.rates.PerSearch))
	return l.rates.PerSearch
}

// AddCollect records one collect call and returns its credit cost.
func (l *Ledger) AddCollect() int {
	l.collect.Add(int64(l.rates.PerCollect))
	return l.rates.PerCollect
}

// SearchCredits returns the credits spent on searches so far.
func (l *Ledger) SearchCredits() int {
	return int(l.search.Load())
}

// CollectCredits returns the credits spent on collects so far.
func (l *Ledger) CollectCredits() int {
	return int(l.collect.Load())
}

// Total returns all credits spent so far.
func (l *Ledger) Total() int {
	return l.SearchCredits() + l.CollectCredits()
}

// USD returns the dollar value of all credits spent so far.
func (l *Ledger) USD() float64 {
	return l.rates.USD(l.Total())
}

// CanSearch reports whether one more search call fits within the credit
// budget. A budget of zero disables the phase entirely.
func (l *Ledger) CanSearch(budget int) bool {
	return l.SearchCredits()+l.rates.PerSearch <= budget
}

// CanCollect reports whether one more collect call fits within the credit
// budget.
func (l *Ledger) CanCollect(budget int) bool {
	return l.CollectCredits()+l.rates.PerCollect <= budget
}
