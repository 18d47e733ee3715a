package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/internal/mandate"
	"github.com/jcgs2503/vestbridge/pkg/metrics"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

// OrderOutcome is the result of a place_order call: either the order was
// blocked by the mandate, or it reached the broker and Result holds the
// broker's answer.
type OrderOutcome struct {
	Blocked bool                `json:"blocked"`
	Reason  string              `json:"reason,omitempty"`
	Message string              `json:"message,omitempty"`
	Checks  []model.CheckResult `json:"checks,omitempty"`
	Result  *model.OrderResult  `json:"result,omitempty"`
}

// PlaceOrder evaluates the order against the loaded mandate and, if it
// passes (or no mandate is loaded), forwards it to the broker. The
// decision and outcome are appended to the audit log in either case; the
// append is the final step, never performed before the decision is
// complete.
func (s *Service) PlaceOrder(ctx context.Context, order model.OrderRequest) (*OrderOutcome, error) {
	order.Symbol = strings.ToUpper(order.Symbol)
	if order.AssetType == "" {
		order.AssetType = model.AssetEquity
	}

	params := map[string]any{
		"symbol":     order.Symbol,
		"qty":        order.Qty,
		"side":       string(order.Side),
		"order_type": string(order.OrderType),
	}
	if order.LimitPrice > 0 {
		params["limit_price"] = order.LimitPrice
	}

	if s.Engine != nil {
		result, err := s.evaluate(ctx, order)
		if err != nil {
			return nil, err
		}

		if !result.Passed {
			metrics.MandateEvaluations.WithLabelValues("fail").Inc()
			metrics.OrdersBlocked.Inc()

			reason := result.BlockedReason
			if reason == "" {
				reason = "Unknown mandate violation"
			}
			if err := s.log(audit.LogInput{
				Action:        "place_order",
				Params:        params,
				MandateID:     s.MandateID,
				MandateHash:   s.MandateHash,
				MandateCheck:  model.MandateCheckFail,
				MandateReason: reason,
			}); err != nil {
				return nil, err
			}
			return &OrderOutcome{
				Blocked: true,
				Reason:  reason,
				Message: fmt.Sprintf("Order BLOCKED by mandate: %s. Adjust your strategy.", reason),
				Checks:  result.Checks,
			}, nil
		}
		metrics.MandateEvaluations.WithLabelValues("pass").Inc()
	}

	orderResult, err := s.Broker.PlaceOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	metrics.OrdersPlaced.WithLabelValues(string(orderResult.Status)).Inc()

	resultMap, err := toMap(orderResult)
	if err != nil {
		return nil, err
	}
	in := audit.LogInput{
		Action: "place_order",
		Params: params,
		Result: resultMap,
	}
	if s.Engine != nil {
		in.MandateID = s.MandateID
		in.MandateHash = s.MandateHash
		in.MandateCheck = model.MandateCheckPass
	}
	if err := s.log(in); err != nil {
		return nil, err
	}
	return &OrderOutcome{Result: orderResult}, nil
}

// evaluate assembles the TradingContext from live broker state plus
// audit log replay and runs the engine.
func (s *Service) evaluate(ctx context.Context, order model.OrderRequest) (*model.MandateResult, error) {
	positions, err := s.Broker.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	account, err := s.Broker.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	quote, err := s.Broker.GetQuote(ctx, order.Symbol)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	dailyNotional, dailyTrades, err := s.Audit.DailyStats(s.AgentID)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}

	result := s.Engine.Evaluate(order, mandate.TradingContext{
		Positions:       positions,
		PortfolioValue:  account.PortfolioValue,
		DailyNotional:   dailyNotional,
		DailyTradeCount: dailyTrades,
		CurrentTime:     time.Now().UTC(),
		CurrentPrice:    quote.Price,
	})
	return &result, nil
}

// CancelOrder forwards the cancellation to the broker and audits the
// outcome. Cancellations are not mandate-gated.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error) {
	result, err := s.Broker.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resultMap, err := toMap(result)
	if err != nil {
		return nil, err
	}
	if err := s.log(audit.LogInput{
		Action: "cancel_order",
		Params: map[string]any{"order_id": orderID},
		Result: resultMap,
	}); err != nil {
		return nil, err
	}
	return result, nil
}
