package vest_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/internal/broker"
	"github.com/jcgs2503/vestbridge/internal/mandate"
	"github.com/jcgs2503/vestbridge/internal/server"
	"github.com/jcgs2503/vestbridge/internal/tools"
	"github.com/jcgs2503/vestbridge/pkg/model"
	"github.com/jcgs2503/vestbridge/pkg/vest"
)

func newTestClient(t *testing.T, perms *model.MandatePermissions) *vest.Client {
	t.Helper()
	dir := t.TempDir()

	paper, err := broker.NewPaperBroker(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	logger, err := audit.NewLogger(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)

	svc := &tools.Service{
		Broker:  paper,
		Audit:   logger,
		AgentID: "agt_client01",
	}
	if perms != nil {
		svc.Engine = mandate.NewEngine(model.Mandate{
			MandateID:   "mnd_client01",
			Version:     1,
			Permissions: *perms,
			CreatedAt:   time.Now().UTC(),
		})
		svc.MandateID = "mnd_client01"
	}

	srv := httptest.NewServer(server.New(svc, zap.NewNop(), nil).Handler())
	t.Cleanup(srv.Close)
	return vest.NewClient(srv.URL)
}

func TestClient_Healthz(t *testing.T) {
	client := newTestClient(t, nil)

	health, err := client.Healthz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "agt_client01", health.AgentID)
}

func TestClient_QuoteAndAccount(t *testing.T) {
	client := newTestClient(t, nil)
	ctx := context.Background()

	quote, err := client.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Greater(t, quote.Price, 0.0)

	account, err := client.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, broker.DefaultCash, account.CashBalance)
}

func TestClient_PlaceOrderFills(t *testing.T) {
	client := newTestClient(t, nil)
	ctx := context.Background()

	outcome, err := client.PlaceOrder(ctx, vest.OrderParams{
		Symbol: "AAPL",
		Qty:    2,
		Side:   "buy",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Blocked)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, model.StatusFilled, outcome.Result.Status)

	positions, err := client.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.Equal(t, 2.0, positions[0].Qty)
}

func TestClient_BlockedOrderIsNotAnError(t *testing.T) {
	client := newTestClient(t, &model.MandatePermissions{
		BlockedSymbols: []string{"GME"},
	})

	outcome, err := client.PlaceOrder(context.Background(), vest.OrderParams{
		Symbol: "GME",
		Qty:    1,
		Side:   "buy",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Blocked)
	assert.Contains(t, outcome.Reason, "blocked symbols list")
	assert.Len(t, outcome.Checks, 11)
	assert.Nil(t, outcome.Result)
}

func TestClient_ValidationErrorSurfaces(t *testing.T) {
	client := newTestClient(t, nil)

	_, err := client.PlaceOrder(context.Background(), vest.OrderParams{
		Symbol: "AAPL",
		Qty:    1,
		Side:   "hold",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid side")
}

func TestClient_CancelOrder(t *testing.T) {
	client := newTestClient(t, nil)

	result, err := client.CancelOrder(context.Background(), "paper_unknown1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, result.Status)
}

func TestClient_RecentActions(t *testing.T) {
	client := newTestClient(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.GetQuote(ctx, "MSFT")
		require.NoError(t, err)
	}

	actions, err := client.RecentActions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "get_quote", actions[0].Action)
	assert.Equal(t, "MSFT", actions[0].Params["symbol"])
}
