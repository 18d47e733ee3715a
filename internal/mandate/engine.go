// Package mandate loads, signs, verifies, and enforces mandate policy
// documents. The engine runs a fixed catalog of pure checks against a
// proposed order; check order is part of the contract because
// blocked_reason strings must be reproducible.
package mandate

import (
	"strings"
	"time"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

// TradingContext carries the broker and audit state a check needs to
// evaluate an order. CurrentPrice is the simulated or quoted price used
// to value the order.
type TradingContext struct {
	Positions       []model.Position
	PortfolioValue  float64
	DailyNotional   float64
	DailyTradeCount int
	CurrentTime     time.Time
	CurrentPrice    float64
}

// Check evaluates one permission rule against an order. Checks are pure:
// no state, no side effects, safe for concurrent use.
type Check interface {
	Name() string
	Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult
}

// Engine runs every check in the catalog against a proposed order. It
// holds no mutable state and may be shared across concurrent
// evaluations.
type Engine struct {
	mandate model.Mandate
	checks  []Check
}

// NewEngine constructs an engine for one mandate. The check order is
// fixed and must not change.
func NewEngine(m model.Mandate) *Engine {
	return &Engine{
		mandate: m,
		checks: []Check{
			orderSizeCheck{},
			concentrationCheck{},
			symbolAllowlistCheck{},
			symbolBlocklistCheck{},
			assetTypeCheck{},
			dailyVolumeCheck{},
			dailyTradeCountCheck{},
			tradingHoursCheck{},
			orderTypeCheck{},
			sideCheck{},
			portfolioPercentCheck{},
		},
	}
}

// Mandate returns the mandate the engine enforces.
func (e *Engine) Mandate() model.Mandate { return e.mandate }

// Evaluate runs every check with no short-circuit, so the caller sees
// all violations at once. Passed is the AND of all checks;
// BlockedReason joins every failing reason with "; " in catalog order.
func (e *Engine) Evaluate(order model.OrderRequest, ctx TradingContext) model.MandateResult {
	result := model.MandateResult{Passed: true}
	var reasons []string

	for _, check := range e.checks {
		verdict := check.Evaluate(order, e.mandate.Permissions, ctx)
		result.Checks = append(result.Checks, verdict)
		if !verdict.Passed {
			result.Passed = false
			if verdict.Reason != "" {
				reasons = append(reasons, verdict.Reason)
			}
		}
	}

	result.BlockedReason = strings.Join(reasons, "; ")
	return result
}
