package mandate

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

// usd formats dollar amounts with thousands separators, matching the
// reason strings recorded in audit entries.
var usd = message.NewPrinter(language.English)

type orderSizeCheck struct{}

func (orderSizeCheck) Name() string { return "order_size" }

func (c orderSizeCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.MaxOrderSizeUSD == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	orderValue := ctx.CurrentPrice * order.Qty
	if orderValue > *perms.MaxOrderSizeUSD {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: usd.Sprintf("Order value $%.2f exceeds max order size $%.2f",
				orderValue, *perms.MaxOrderSizeUSD),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}

type portfolioPercentCheck struct{}

func (portfolioPercentCheck) Name() string { return "portfolio_percent" }

func (c portfolioPercentCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.MaxPortfolioPctPerOrder == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if ctx.PortfolioValue <= 0 {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason:    "Cannot evaluate portfolio percent: portfolio value is zero",
		}
	}

	orderValue := ctx.CurrentPrice * order.Qty
	orderPct := orderValue / ctx.PortfolioValue * 100
	if orderPct > *perms.MaxPortfolioPctPerOrder {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: usd.Sprintf("Order is %.1f%% of portfolio, exceeds max %v%%",
				orderPct, *perms.MaxPortfolioPctPerOrder),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}
