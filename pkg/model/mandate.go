package model

import "time"

// Mandate is a signed, versioned policy document constraining what trades
// an agent may place. Signature metadata (_signature, _signed_at,
// _signed_by) lives only in the YAML file; it is stripped before hashing
// or signing and never enters the typed model.
type Mandate struct {
	MandateID   string             `yaml:"mandate_id" json:"mandate_id"`
	Version     int                `yaml:"version" json:"version"`
	AgentID     string             `yaml:"agent_id,omitempty" json:"agent_id,omitempty"`
	Permissions MandatePermissions `yaml:"permissions" json:"permissions"`
	CreatedAt   time.Time          `yaml:"created_at" json:"created_at"`
	Description string             `yaml:"description,omitempty" json:"description,omitempty"`
}

// MandatePermissions is the policy body. Every field is optional; a nil
// field means "no restriction", never "deny".
type MandatePermissions struct {
	MaxOrderSizeUSD         *float64 `yaml:"max_order_size_usd,omitempty" json:"max_order_size_usd,omitempty"`
	MaxDailyNotionalUSD     *float64 `yaml:"max_daily_notional_usd,omitempty" json:"max_daily_notional_usd,omitempty"`
	MaxDailyTrades          *int     `yaml:"max_daily_trades,omitempty" json:"max_daily_trades,omitempty"`
	AllowedSymbols          []string `yaml:"allowed_symbols,omitempty" json:"allowed_symbols,omitempty"`
	BlockedSymbols          []string `yaml:"blocked_symbols,omitempty" json:"blocked_symbols,omitempty"`
	AllowedSides            []string `yaml:"allowed_sides,omitempty" json:"allowed_sides,omitempty"`
	AllowedOrderTypes       []string `yaml:"allowed_order_types,omitempty" json:"allowed_order_types,omitempty"`
	AllowedAssetTypes       []string `yaml:"allowed_asset_types,omitempty" json:"allowed_asset_types,omitempty"`
	MaxConcentrationPct     *float64 `yaml:"max_concentration_pct,omitempty" json:"max_concentration_pct,omitempty"`
	MaxPortfolioPctPerOrder *float64 `yaml:"max_portfolio_pct_per_order,omitempty" json:"max_portfolio_pct_per_order,omitempty"`
	TradingHoursOnly        bool     `yaml:"trading_hours_only,omitempty" json:"trading_hours_only,omitempty"`
	RequireLimitOrders      bool     `yaml:"require_limit_orders,omitempty" json:"require_limit_orders,omitempty"`
}

// ActiveLimits counts permission fields that actually restrict something.
func (p MandatePermissions) ActiveLimits() int {
	n := 0
	if p.MaxOrderSizeUSD != nil {
		n++
	}
	if p.MaxDailyNotionalUSD != nil {
		n++
	}
	if p.MaxDailyTrades != nil {
		n++
	}
	if p.AllowedSymbols != nil {
		n++
	}
	if p.BlockedSymbols != nil {
		n++
	}
	if p.AllowedSides != nil {
		n++
	}
	if p.AllowedOrderTypes != nil {
		n++
	}
	if p.AllowedAssetTypes != nil {
		n++
	}
	if p.MaxConcentrationPct != nil {
		n++
	}
	if p.MaxPortfolioPctPerOrder != nil {
		n++
	}
	if p.TradingHoursOnly {
		n++
	}
	if p.RequireLimitOrders {
		n++
	}
	return n
}

// CheckResult is the verdict of a single mandate check.
type CheckResult struct {
	CheckName string `json:"check_name"`
	Passed    bool   `json:"passed"`
	Reason    string `json:"reason,omitempty"`
}

// MandateResult aggregates every check run against one order. Passed is
// the AND of all checks; BlockedReason joins every failing reason with
// "; " in check-registration order so the caller sees all violations at
// once.
type MandateResult struct {
	Passed        bool          `json:"passed"`
	Checks        []CheckResult `json:"checks"`
	BlockedReason string        `json:"blocked_reason,omitempty"`
}
