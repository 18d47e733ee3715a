// Package broker defines the adapter interface to a brokerage and the
// built-in paper trading implementation. The core treats every adapter
// call as a fallible remote call; errors propagate to the caller with no
// retry.
package broker

import (
	"context"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

// Adapter is the brokerage surface consumed by the tool layer.
type Adapter interface {
	GetQuote(ctx context.Context, symbol string) (*model.Quote, error)
	GetPositions(ctx context.Context) ([]model.Position, error)
	GetAccount(ctx context.Context) (*model.Account, error)
	PlaceOrder(ctx context.Context, order model.OrderRequest) (*model.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error)
}

// New constructs the named adapter. statePath is only used by the paper
// broker.
func New(name, statePath string) (Adapter, error) {
	switch name {
	case "paper":
		return NewPaperBroker(statePath)
	case "ibkr":
		return newIBKRBroker()
	case "robinhood":
		return newRobinhoodBroker()
	}
	return nil, errclass.ErrBrokerUnsupported.WithMessagef("unknown broker %q", name)
}
