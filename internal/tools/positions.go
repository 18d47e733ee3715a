package tools

import (
	"context"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

// GetPositions lists the agent's current holdings and audits the lookup.
func (s *Service) GetPositions(ctx context.Context) ([]model.Position, error) {
	positions, err := s.Broker.GetPositions(ctx)
	if err != nil {
		return nil, err
	}

	serialized := make([]any, 0, len(positions))
	for _, p := range positions {
		m, err := toMap(p)
		if err != nil {
			return nil, err
		}
		serialized = append(serialized, m)
	}
	if err := s.log(audit.LogInput{
		Action: "get_positions",
		Params: map[string]any{},
		Result: map[string]any{"positions": serialized},
	}); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetAccount reports balances and portfolio value and audits the lookup.
func (s *Service) GetAccount(ctx context.Context) (*model.Account, error) {
	account, err := s.Broker.GetAccount(ctx)
	if err != nil {
		return nil, err
	}

	resultMap, err := toMap(account)
	if err != nil {
		return nil, err
	}
	if err := s.log(audit.LogInput{
		Action: "get_account",
		Params: map[string]any{},
		Result: resultMap,
	}); err != nil {
		return nil, err
	}
	return account, nil
}
