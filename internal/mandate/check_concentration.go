package mandate

import (
	"strings"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

type concentrationCheck struct{}

func (concentrationCheck) Name() string { return "concentration" }

// Evaluate values the would-be position (existing market value plus the
// order at the current price) as a share of the whole portfolio. A
// non-positive portfolio value fails closed: concentration cannot be
// computed, so the order is not allowed through.
func (c concentrationCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.MaxConcentrationPct == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if ctx.PortfolioValue <= 0 {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason:    "Cannot evaluate concentration: portfolio value is zero",
		}
	}

	var existingValue float64
	for _, pos := range ctx.Positions {
		if strings.EqualFold(pos.Symbol, order.Symbol) {
			existingValue = pos.MarketValue
			break
		}
	}

	totalValue := existingValue + ctx.CurrentPrice*order.Qty
	concentrationPct := totalValue / ctx.PortfolioValue * 100
	if concentrationPct > *perms.MaxConcentrationPct {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: usd.Sprintf("%s would be %.1f%% of portfolio, exceeds max concentration %v%%",
				order.Symbol, concentrationPct, *perms.MaxConcentrationPct),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}
