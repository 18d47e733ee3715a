package mandate

import (
	"fmt"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

type dailyVolumeCheck struct{}

func (dailyVolumeCheck) Name() string { return "daily_volume" }

func (c dailyVolumeCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.MaxDailyNotionalUSD == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	orderValue := ctx.CurrentPrice * order.Qty
	newTotal := ctx.DailyNotional + orderValue
	if newTotal > *perms.MaxDailyNotionalUSD {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: usd.Sprintf("Daily notional would be $%.2f, exceeds max $%.2f (already traded $%.2f today)",
				newTotal, *perms.MaxDailyNotionalUSD, ctx.DailyNotional),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}

type dailyTradeCountCheck struct{}

func (dailyTradeCountCheck) Name() string { return "daily_trade_count" }

func (c dailyTradeCountCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.MaxDailyTrades == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if ctx.DailyTradeCount >= *perms.MaxDailyTrades {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: fmt.Sprintf("Already placed %d trades today, max is %d",
				ctx.DailyTradeCount, *perms.MaxDailyTrades),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}
