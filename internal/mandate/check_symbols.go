package mandate

import (
	"fmt"
	"strings"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

type symbolAllowlistCheck struct{}

func (symbolAllowlistCheck) Name() string { return "symbol_allowlist" }

func (c symbolAllowlistCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.AllowedSymbols == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if !containsFold(perms.AllowedSymbols, order.Symbol) {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason:    fmt.Sprintf("%s is not in allowed symbols list", order.Symbol),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}

type symbolBlocklistCheck struct{}

func (symbolBlocklistCheck) Name() string { return "symbol_blocklist" }

func (c symbolBlocklistCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.BlockedSymbols == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if containsFold(perms.BlockedSymbols, order.Symbol) {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason:    fmt.Sprintf("%s is in blocked symbols list", order.Symbol),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
