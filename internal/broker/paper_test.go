package broker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

func newTestBroker(t *testing.T) *PaperBroker {
	t.Helper()
	b, err := NewPaperBroker(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return b
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

func TestPaperBroker_StartsWithDefaultCash(t *testing.T) {
	b := newTestBroker(t)

	account, err := b.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCash, account.CashBalance)
	assert.Equal(t, DefaultCash, account.PortfolioValue)
	assert.Zero(t, account.PositionsValue)
	assert.Equal(t, "paper", account.AccountID)
}

func TestPaperBroker_QuoteHasSpreadAndStablePriceRange(t *testing.T) {
	b := newTestBroker(t)

	quote, err := b.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.GreaterOrEqual(t, quote.Price, 20.0)
	assert.Less(t, quote.Price, 500.0)
	assert.Less(t, quote.Bid, quote.Price)
	assert.Greater(t, quote.Ask, quote.Price)
	assert.GreaterOrEqual(t, quote.Volume, int64(100_000))
}

func TestPaperBroker_MarketBuyUpdatesCashAndPositions(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	result, err := b.PlaceOrder(ctx, marketBuy("AAPL", 10))
	require.NoError(t, err)
	assert.Equal(t, model.StatusFilled, result.Status)
	assert.True(t, strings.HasPrefix(result.OrderID, "paper_"))
	assert.Equal(t, 10.0, result.FilledQty)
	assert.Greater(t, result.FilledPrice, 0.0)

	account, err := b.GetAccount(ctx)
	require.NoError(t, err)
	assert.Less(t, account.CashBalance, DefaultCash)

	positions, err := b.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.Equal(t, 10.0, positions[0].Qty)
	assert.Equal(t, result.FilledPrice, positions[0].AvgCost)
}

func TestPaperBroker_BuyThenSellFlat(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	buy, err := b.PlaceOrder(ctx, marketBuy("MSFT", 5))
	require.NoError(t, err)
	require.Equal(t, model.StatusFilled, buy.Status)

	sell := marketBuy("MSFT", 5)
	sell.Side = model.SideSell
	result, err := b.PlaceOrder(ctx, sell)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFilled, result.Status)

	positions, err := b.GetPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPaperBroker_InsufficientFunds(t *testing.T) {
	b := newTestBroker(t)

	// Even at the $500 price cap, 10,000 shares exceed $100k cash.
	result, err := b.PlaceOrder(context.Background(), marketBuy("AAPL", 10_000))
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Contains(t, result.Message, "Insufficient funds")

	account, err := b.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCash, account.CashBalance)
}

func TestPaperBroker_InsufficientShares(t *testing.T) {
	b := newTestBroker(t)

	sell := marketBuy("AAPL", 5)
	sell.Side = model.SideSell
	result, err := b.PlaceOrder(context.Background(), sell)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Contains(t, result.Message, "Insufficient shares")
}

func TestPaperBroker_LimitOrderWithoutPriceRejected(t *testing.T) {
	b := newTestBroker(t)

	order := marketBuy("AAPL", 1)
	order.OrderType = model.OrderTypeLimit
	result, err := b.PlaceOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Contains(t, result.Message, "require a limit_price")
}

func TestPaperBroker_UnfavorableLimitBuyGoesPending(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	order := marketBuy("AAPL", 1)
	order.OrderType = model.OrderTypeLimit
	order.LimitPrice = 0.5 // always below the simulated market floor of $20

	result, err := b.PlaceOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, result.Status)
	assert.Contains(t, result.Message, "Limit order pending")

	cancel, err := b.CancelOrder(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancel.Status)
}

func TestPaperBroker_FavorableLimitBuyFillsAtLimit(t *testing.T) {
	b := newTestBroker(t)

	order := marketBuy("AAPL", 1)
	order.OrderType = model.OrderTypeLimit
	order.LimitPrice = 10_000 // far above any simulated market price

	result, err := b.PlaceOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFilled, result.Status)
	assert.Equal(t, 10_000.0, result.FilledPrice)
}

func TestPaperBroker_CancelUnknownOrderRejected(t *testing.T) {
	b := newTestBroker(t)

	result, err := b.CancelOrder(context.Background(), "paper_deadbeef")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Contains(t, result.Message, "not found or already filled")
}

func TestPaperBroker_StatePersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	first, err := NewPaperBroker(path)
	require.NoError(t, err)
	buy, err := first.PlaceOrder(ctx, marketBuy("AAPL", 10))
	require.NoError(t, err)
	require.Equal(t, model.StatusFilled, buy.Status)

	second, err := NewPaperBroker(path)
	require.NoError(t, err)
	positions, err := second.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 10.0, positions[0].Qty)

	account, err := second.GetAccount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, DefaultCash-buy.FilledPrice*10, account.CashBalance, 0.01)
}

func TestPaperBroker_AveragesCostAcrossBuys(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	first, err := b.PlaceOrder(ctx, marketBuy("AAPL", 10))
	require.NoError(t, err)
	second, err := b.PlaceOrder(ctx, marketBuy("AAPL", 10))
	require.NoError(t, err)

	positions, err := b.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 20.0, positions[0].Qty)
	want := (first.FilledPrice*10 + second.FilledPrice*10) / 20
	assert.InDelta(t, want, positions[0].AvgCost, 0.0001)
}

func TestNew_BrokerFactory(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")

	paper, err := New("paper", statePath)
	require.NoError(t, err)
	assert.NotNil(t, paper)

	for _, name := range []string{"ibkr", "robinhood", "etrade"} {
		_, err := New(name, statePath)
		assert.ErrorIs(t, err, errclass.ErrBrokerUnsupported, name)
	}

	_, err = os.Stat(statePath)
	assert.True(t, os.IsNotExist(err), "factory must not create state before first trade")
}
