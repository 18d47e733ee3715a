package mandate

import (
	"fmt"
	"strings"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

type assetTypeCheck struct{}

func (assetTypeCheck) Name() string { return "asset_type" }

func (c assetTypeCheck) Evaluate(order model.OrderRequest, perms model.MandatePermissions, ctx TradingContext) model.CheckResult {
	if perms.AllowedAssetTypes == nil {
		return model.CheckResult{CheckName: c.Name(), Passed: true}
	}

	if !containsFold(perms.AllowedAssetTypes, string(order.AssetType)) {
		return model.CheckResult{
			CheckName: c.Name(),
			Passed:    false,
			Reason: fmt.Sprintf("Asset type '%s' is not allowed. Allowed: %s",
				order.AssetType, strings.Join(perms.AllowedAssetTypes, ", ")),
		}
	}
	return model.CheckResult{CheckName: c.Name(), Passed: true}
}
