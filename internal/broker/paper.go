package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcgs2503/vestbridge/pkg/fsutil"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

// DefaultCash is the paper account's starting balance.
const DefaultCash = 100_000.0

type paperPosition struct {
	Qty     float64 `json:"qty"`
	AvgCost float64 `json:"avg_cost"`
}

type pendingOrder struct {
	Symbol     string     `json:"symbol"`
	Qty        float64    `json:"qty"`
	Side       model.Side `json:"side"`
	LimitPrice float64    `json:"limit_price"`
	Timestamp  time.Time  `json:"timestamp"`
}

type paperState struct {
	Cash          float64                  `json:"cash"`
	Positions     map[string]paperPosition `json:"positions"`
	PendingOrders map[string]pendingOrder  `json:"pending_orders"`
	Prices        map[string]float64       `json:"prices"`
}

func newPaperState() *paperState {
	return &paperState{
		Cash:          DefaultCash,
		Positions:     map[string]paperPosition{},
		PendingOrders: map[string]pendingOrder{},
		Prices:        map[string]float64{},
	}
}

// PaperBroker simulates a brokerage: random-walk prices, immediate fills
// for market orders, pending queueing for unfavorable limit orders, and
// state persisted as JSON between runs. All methods are safe for
// concurrent use.
type PaperBroker struct {
	statePath string

	mu    sync.Mutex
	state *paperState
}

// NewPaperBroker loads persisted state from statePath, starting fresh
// with DefaultCash if the file is absent.
func NewPaperBroker(statePath string) (*PaperBroker, error) {
	b := &PaperBroker{statePath: statePath, state: newPaperState()}

	data, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read paper state: %w", err)
	}
	if err := json.Unmarshal(data, b.state); err != nil {
		return nil, fmt.Errorf("parse paper state: %w", err)
	}
	if b.state.Positions == nil {
		b.state.Positions = map[string]paperPosition{}
	}
	if b.state.PendingOrders == nil {
		b.state.PendingOrders = map[string]pendingOrder{}
	}
	if b.state.Prices == nil {
		b.state.Prices = map[string]float64{}
	}
	return b, nil
}

func (b *PaperBroker) saveLocked() error {
	data, err := json.MarshalIndent(b.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal paper state: %w", err)
	}
	return fsutil.AtomicWrite(b.statePath, data, 0o644)
}

// simulatedPriceLocked returns the symbol's price, seeding an initial
// price in [20, 500) and random-walking up to ±2% on later calls.
func (b *PaperBroker) simulatedPriceLocked(symbol string) float64 {
	last, ok := b.state.Prices[symbol]
	if !ok {
		price := round2(20 + rand.Float64()*480)
		b.state.Prices[symbol] = price
		return price
	}
	change := last * (rand.Float64()*0.04 - 0.02)
	price := round2(math.Max(0.01, last+change))
	b.state.Prices[symbol] = price
	return price
}

func (b *PaperBroker) positionsValueLocked() float64 {
	var total float64
	for symbol, pos := range b.state.Positions {
		if pos.Qty > 0 {
			total += pos.Qty * b.simulatedPriceLocked(symbol)
		}
	}
	return total
}

// GetQuote reports the simulated price with a 0.1% bid/ask spread.
func (b *PaperBroker) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	price := b.simulatedPriceLocked(strings.ToUpper(symbol))
	spread := price * 0.001
	return &model.Quote{
		Symbol:    strings.ToUpper(symbol),
		Price:     price,
		Bid:       round2(price - spread),
		Ask:       round2(price + spread),
		Volume:    rand.Int64N(9_900_000) + 100_000,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetPositions lists currently held lots valued at simulated prices.
func (b *PaperBroker) GetPositions(ctx context.Context) ([]model.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var positions []model.Position
	for symbol, pos := range b.state.Positions {
		if pos.Qty <= 0 {
			continue
		}
		currentPrice := b.simulatedPriceLocked(symbol)
		marketValue := pos.Qty * currentPrice
		costBasis := pos.Qty * pos.AvgCost
		positions = append(positions, model.Position{
			Symbol:        symbol,
			Qty:           pos.Qty,
			AvgCost:       pos.AvgCost,
			CurrentPrice:  currentPrice,
			MarketValue:   round2(marketValue),
			UnrealizedPnL: round2(marketValue - costBasis),
			AssetType:     model.AssetEquity,
		})
	}
	return positions, nil
}

// GetAccount reports cash and portfolio value at simulated prices.
func (b *PaperBroker) GetAccount(ctx context.Context) (*model.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	positionsValue := b.positionsValueLocked()
	return &model.Account{
		AccountID:      "paper",
		CashBalance:    round2(b.state.Cash),
		BuyingPower:    round2(b.state.Cash),
		PortfolioValue: round2(b.state.Cash + positionsValue),
		PositionsValue: round2(positionsValue),
	}, nil
}

// PlaceOrder fills market orders at the simulated price and limit orders
// at the limit price when favorable; unfavorable limit orders are queued
// as pending. Buys are rejected on insufficient cash, sells on
// insufficient shares.
func (b *PaperBroker) PlaceOrder(ctx context.Context, order model.OrderRequest) (*model.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	symbol := strings.ToUpper(order.Symbol)
	price := b.simulatedPriceLocked(symbol)
	orderID := newPaperOrderID()
	now := time.Now().UTC()

	reject := func(message string) *model.OrderResult {
		return &model.OrderResult{
			OrderID:   orderID,
			Symbol:    symbol,
			Qty:       order.Qty,
			Side:      order.Side,
			OrderType: order.OrderType,
			Status:    model.StatusRejected,
			Message:   message,
			Timestamp: now,
		}
	}

	fillPrice := price
	if order.OrderType == model.OrderTypeLimit {
		if order.LimitPrice <= 0 {
			return reject("Limit orders require a limit_price"), nil
		}
		pendingMessage := ""
		if order.Side == model.SideBuy && order.LimitPrice < price {
			pendingMessage = fmt.Sprintf("Limit order pending (limit %v < market %v)", order.LimitPrice, price)
		}
		if order.Side == model.SideSell && order.LimitPrice > price {
			pendingMessage = fmt.Sprintf("Limit order pending (limit %v > market %v)", order.LimitPrice, price)
		}
		if pendingMessage != "" {
			b.state.PendingOrders[orderID] = pendingOrder{
				Symbol:     symbol,
				Qty:        order.Qty,
				Side:       order.Side,
				LimitPrice: order.LimitPrice,
				Timestamp:  now,
			}
			if err := b.saveLocked(); err != nil {
				return nil, err
			}
			return &model.OrderResult{
				OrderID:   orderID,
				Symbol:    symbol,
				Qty:       order.Qty,
				Side:      order.Side,
				OrderType: order.OrderType,
				Status:    model.StatusPending,
				Message:   pendingMessage,
				Timestamp: now,
			}, nil
		}
		fillPrice = order.LimitPrice
	}

	totalCost := fillPrice * order.Qty

	switch order.Side {
	case model.SideBuy:
		if totalCost > b.state.Cash {
			return reject(fmt.Sprintf("Insufficient funds: need $%.2f, have $%.2f", totalCost, b.state.Cash)), nil
		}
		b.state.Cash -= totalCost
		if existing, ok := b.state.Positions[symbol]; ok {
			newQty := existing.Qty + order.Qty
			newCost := (existing.Qty*existing.AvgCost + totalCost) / newQty
			b.state.Positions[symbol] = paperPosition{Qty: newQty, AvgCost: round4(newCost)}
		} else {
			b.state.Positions[symbol] = paperPosition{Qty: order.Qty, AvgCost: fillPrice}
		}

	case model.SideSell:
		existing, ok := b.state.Positions[symbol]
		if !ok || existing.Qty < order.Qty {
			return reject(fmt.Sprintf("Insufficient shares: need %v, have %v", order.Qty, existing.Qty)), nil
		}
		b.state.Cash += totalCost
		existing.Qty -= order.Qty
		if existing.Qty == 0 {
			delete(b.state.Positions, symbol)
		} else {
			b.state.Positions[symbol] = existing
		}
	}

	if err := b.saveLocked(); err != nil {
		return nil, err
	}
	return &model.OrderResult{
		OrderID:     orderID,
		Symbol:      symbol,
		Qty:         order.Qty,
		Side:        order.Side,
		OrderType:   order.OrderType,
		Status:      model.StatusFilled,
		FilledPrice: fillPrice,
		FilledQty:   order.Qty,
		Message:     fmt.Sprintf("Filled %v %s @ $%.2f", order.Qty, symbol, fillPrice),
		Timestamp:   now,
	}, nil
}

// CancelOrder removes a pending limit order; anything else is rejected
// as not found or already filled.
func (b *PaperBroker) CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.state.PendingOrders[orderID]; ok {
		delete(b.state.PendingOrders, orderID)
		if err := b.saveLocked(); err != nil {
			return nil, err
		}
		return &model.CancelResult{
			OrderID: orderID,
			Status:  model.StatusCancelled,
			Message: "Order cancelled",
		}, nil
	}
	return &model.CancelResult{
		OrderID: orderID,
		Status:  model.StatusRejected,
		Message: fmt.Sprintf("Order %s not found or already filled", orderID),
	}, nil
}

func newPaperOrderID() string {
	return "paper_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10_000) / 10_000 }
