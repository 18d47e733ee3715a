package tools

import (
	"context"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

// GetQuote fetches the current price for a symbol and audits the lookup.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	quote, err := s.Broker.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	resultMap, err := toMap(quote)
	if err != nil {
		return nil, err
	}
	if err := s.log(audit.LogInput{
		Action: "get_quote",
		Params: map[string]any{"symbol": symbol},
		Result: resultMap,
	}); err != nil {
		return nil, err
	}
	return quote, nil
}
