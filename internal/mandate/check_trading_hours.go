package mandate

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

const (
	marketOpenMinutes  = 9*60 + 30
	marketCloseMinutes = 16 * 60
)

var (
	easternOnce sync.Once
	eastern     *time.Location
	easternErr  error
)

func easternLocation() (*time.Location, error) {
	easternOnce.Do(func() {
		eastern, easternErr = time.LoadLocation("America/New_York")
	})
	return eastern, easternErr
}

type tradingHoursCheck struct{}

func (tradingHoursCheck) Name() string { return "trading_hours" }

// Evaluate restricts orders to US market hours: Mon-Fri, 09:30 inclusive
// to 16:00 exclusive, US Eastern. A failure to resolve the timezone
// fails the check rather than waving the order through.
func (c tradingHoursCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if !perms.TradingHoursOnly {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	loc, err := easternLocation()
	if err != nil {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason:    fmt.Sprintf("Cannot determine market hours: %v", err),
		}
	}

	et := ctx.CurrentTime.In(loc)
	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason:    "Trading restricted to weekdays only (market is closed)",
		}
	}

	minutes := et.Hour()*60 + et.Minute()
	if minutes < marketOpenMinutes || minutes >= marketCloseMinutes {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: fmt.Sprintf("Outside market hours. Current ET time: %s. Market hours: 09:30-16:00 ET",
				et.Format("15:04")),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}

type orderTypeCheck struct{}

func (orderTypeCheck) Name() string { return "order_type" }

func (c orderTypeCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.AllowedOrderTypes == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if !containsFold(perms.AllowedOrderTypes, string(order.OrderType)) {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: fmt.Sprintf("Order type '%s' is not allowed. Allowed: %s",
				order.OrderType, strings.Join(perms.AllowedOrderTypes, ", ")),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}

type sideCheck struct{}

func (sideCheck) Name() string { return "side" }

func (c sideCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.AllowedSides == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if !containsFold(perms.AllowedSides, string(order.Side)) {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: fmt.Sprintf("Side '%s' is not allowed. Allowed: %s",
				order.Side, strings.Join(perms.AllowedSides, ", ")),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}
