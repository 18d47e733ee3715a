// Package model defines the shared data types for VestBridge: orders and
// broker state, mandates and evaluation results, audit entries, and
// security checks.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy   Side = "buy"
	SideSell  Side = "sell"
	SideShort Side = "short"
)

// OrderType identifies how an order is priced.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
	OrderTypeStop   OrderType = "stop"
)

// AssetType identifies the class of the traded instrument.
type AssetType string

const (
	AssetEquity AssetType = "equity"
	AssetOption AssetType = "option"
	AssetFuture AssetType = "future"
	AssetCrypto AssetType = "crypto"
)

// OrderStatus is the broker-reported state of an order.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusFilled          OrderStatus = "filled"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRejected        OrderStatus = "rejected"
)

// ParseSide validates and normalizes a side string.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(s)) {
	case SideBuy, SideSell, SideShort:
		return Side(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("invalid side %q (want buy, sell, or short)", s)
}

// ParseOrderType validates and normalizes an order type string.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToLower(s)) {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStop:
		return OrderType(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("invalid order type %q (want market, limit, or stop)", s)
}

// ParseAssetType validates and normalizes an asset type string.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(strings.ToLower(s)) {
	case AssetEquity, AssetOption, AssetFuture, AssetCrypto:
		return AssetType(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("invalid asset type %q (want equity, option, future, or crypto)", s)
}

// Quote is a point-in-time price report for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Bid       float64   `json:"bid,omitempty"`
	Ask       float64   `json:"ask,omitempty"`
	Volume    int64     `json:"volume,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Position is a currently held lot in one symbol.
type Position struct {
	Symbol        string    `json:"symbol"`
	Qty           float64   `json:"qty"`
	AvgCost       float64   `json:"avg_cost"`
	CurrentPrice  float64   `json:"current_price"`
	MarketValue   float64   `json:"market_value"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	AssetType     AssetType `json:"asset_type"`
}

// Account is the broker-reported account summary.
type Account struct {
	AccountID      string  `json:"account_id"`
	CashBalance    float64 `json:"cash_balance"`
	BuyingPower    float64 `json:"buying_power"`
	PortfolioValue float64 `json:"portfolio_value"`
	PositionsValue float64 `json:"positions_value"`
}

// OrderRequest is the immutable input to mandate evaluation and broker
// execution.
type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Qty        float64   `json:"qty"`
	Side       Side      `json:"side"`
	OrderType  OrderType `json:"order_type"`
	LimitPrice float64   `json:"limit_price,omitempty"`
	AssetType  AssetType `json:"asset_type"`
}

// OrderResult is the broker's answer to a placed order.
type OrderResult struct {
	OrderID     string      `json:"order_id"`
	Symbol      string      `json:"symbol"`
	Qty         float64     `json:"qty"`
	Side        Side        `json:"side"`
	OrderType   OrderType   `json:"order_type"`
	Status      OrderStatus `json:"status"`
	FilledPrice float64     `json:"filled_price,omitempty"`
	FilledQty   float64     `json:"filled_qty,omitempty"`
	Message     string      `json:"message,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// CancelResult is the broker's answer to a cancellation request.
type CancelResult struct {
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}
