package tools_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/internal/broker"
	"github.com/jcgs2503/vestbridge/internal/mandate"
	"github.com/jcgs2503/vestbridge/internal/tools"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func newService(t *testing.T, perms *model.MandatePermissions) *tools.Service {
	t.Helper()
	dir := t.TempDir()

	paper, err := broker.NewPaperBroker(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	logger, err := audit.NewLogger(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)

	svc := &tools.Service{
		Broker:  paper,
		Audit:   logger,
		AgentID: "agt_test0001",
	}
	if perms != nil {
		svc.Engine = mandate.NewEngine(model.Mandate{
			MandateID:   "mnd_test0001",
			Version:     1,
			Permissions: *perms,
			CreatedAt:   time.Now().UTC(),
		})
		svc.MandateID = "mnd_test0001"
		svc.MandateHash = "sha256:feedfeed"
	}
	return svc
}

func lastEntry(t *testing.T, svc *tools.Service) model.AuditEntry {
	t.Helper()
	entries, err := svc.Audit.ReadEntries(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}

func marketBuy(symbol string, qty float64) model.OrderRequest {
	return model.OrderRequest{
		Symbol:    symbol,
		Qty:       qty,
		Side:      model.SideBuy,
		OrderType: model.OrderTypeMarket,
		AssetType: model.AssetEquity,
	}
}

func TestPlaceOrder_NoMandateFailsOpen(t *testing.T) {
	svc := newService(t, nil)

	outcome, err := svc.PlaceOrder(context.Background(), marketBuy("AAPL", 1))
	require.NoError(t, err)
	assert.False(t, outcome.Blocked)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, model.StatusFilled, outcome.Result.Status)

	entry := lastEntry(t, svc)
	assert.Equal(t, "place_order", entry.Action)
	assert.Nil(t, entry.MandateCheck)
	assert.Nil(t, entry.MandateID)
	require.NotNil(t, entry.Result)
	assert.Equal(t, "filled", entry.Result["status"])
}

func TestPlaceOrder_PassingMandateRecordsPass(t *testing.T) {
	svc := newService(t, &model.MandatePermissions{MaxOrderSizeUSD: f64(1_000_000)})

	outcome, err := svc.PlaceOrder(context.Background(), marketBuy("AAPL", 1))
	require.NoError(t, err)
	assert.False(t, outcome.Blocked)

	entry := lastEntry(t, svc)
	require.NotNil(t, entry.MandateCheck)
	assert.Equal(t, model.MandateCheckPass, *entry.MandateCheck)
	require.NotNil(t, entry.MandateID)
	assert.Equal(t, "mnd_test0001", *entry.MandateID)
	require.NotNil(t, entry.MandateHash)
	assert.Equal(t, "sha256:feedfeed", *entry.MandateHash)
}

func TestPlaceOrder_BlockedSymbolNeverReachesBroker(t *testing.T) {
	svc := newService(t, &model.MandatePermissions{BlockedSymbols: []string{"GME"}})
	ctx := context.Background()

	outcome, err := svc.PlaceOrder(ctx, marketBuy("GME", 1))
	require.NoError(t, err)
	assert.True(t, outcome.Blocked)
	assert.Equal(t, "GME is in blocked symbols list", outcome.Reason)
	assert.Contains(t, outcome.Message, "Order BLOCKED by mandate")
	assert.Len(t, outcome.Checks, 11)
	assert.Nil(t, outcome.Result)

	entry := lastEntry(t, svc)
	require.NotNil(t, entry.MandateCheck)
	assert.Equal(t, model.MandateCheckFail, *entry.MandateCheck)
	require.NotNil(t, entry.MandateReason)
	assert.Equal(t, "GME is in blocked symbols list", *entry.MandateReason)
	assert.Nil(t, entry.Result)

	// The broker never saw the order.
	positions, err := svc.Broker.GetPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPlaceOrder_DailyTradeLimitCountsPassedOrders(t *testing.T) {
	svc := newService(t, &model.MandatePermissions{MaxDailyTrades: intp(3)})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		outcome, err := svc.PlaceOrder(ctx, marketBuy("AAPL", 1))
		require.NoError(t, err)
		require.False(t, outcome.Blocked, "order %d", i)
	}

	outcome, err := svc.PlaceOrder(ctx, marketBuy("AAPL", 1))
	require.NoError(t, err)
	assert.True(t, outcome.Blocked)
	assert.Contains(t, outcome.Reason, "Already placed 3 trades today, max is 3")
}

func TestPlaceOrder_NormalizesSymbolAndAssetType(t *testing.T) {
	svc := newService(t, nil)

	order := model.OrderRequest{
		Symbol:    "aapl",
		Qty:       1,
		Side:      model.SideBuy,
		OrderType: model.OrderTypeMarket,
	}
	outcome, err := svc.PlaceOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", outcome.Result.Symbol)

	entry := lastEntry(t, svc)
	assert.Equal(t, "AAPL", entry.Params["symbol"])
}

func TestCancelOrder_Audited(t *testing.T) {
	svc := newService(t, nil)

	result, err := svc.CancelOrder(context.Background(), "paper_deadbeef")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, result.Status)

	entry := lastEntry(t, svc)
	assert.Equal(t, "cancel_order", entry.Action)
	assert.Equal(t, "paper_deadbeef", entry.Params["order_id"])
}

func TestGetQuote_Audited(t *testing.T) {
	svc := newService(t, nil)

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)

	entry := lastEntry(t, svc)
	assert.Equal(t, "get_quote", entry.Action)
	assert.Equal(t, "AAPL", entry.Params["symbol"])
	assert.NotNil(t, entry.Result)
}

func TestGetPositionsAndAccount_Audited(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.GetPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "get_positions", lastEntry(t, svc).Action)

	account, err := svc.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, broker.DefaultCash, account.CashBalance)
	assert.Equal(t, "get_account", lastEntry(t, svc).Action)
}

func TestRecentActions_HidesIntegrityInternals(t *testing.T) {
	svc := newService(t, &model.MandatePermissions{BlockedSymbols: []string{"GME"}})
	ctx := context.Background()

	_, err := svc.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, marketBuy("GME", 1))
	require.NoError(t, err)

	actions, err := svc.RecentActions(10)
	require.NoError(t, err)
	require.Len(t, actions, 2)

	assert.Equal(t, "get_quote", actions[0].Action)
	assert.Empty(t, actions[0].MandateCheck)

	blocked := actions[1]
	assert.Equal(t, "place_order", blocked.Action)
	assert.Equal(t, model.MandateCheckFail, blocked.MandateCheck)
	assert.Contains(t, blocked.MandateReason, "blocked symbols list")
}

func TestRecentActions_LimitsToLastN(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.GetQuote(ctx, "AAPL")
		require.NoError(t, err)
	}

	actions, err := svc.RecentActions(2)
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}
