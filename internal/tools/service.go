// Package tools implements the agent-facing trading operations: quote,
// positions, account, place/cancel order, and the limited audit view.
// Every operation is audited; place_order is additionally gated by the
// mandate engine when one is loaded.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/internal/broker"
	"github.com/jcgs2503/vestbridge/internal/mandate"
	"github.com/jcgs2503/vestbridge/pkg/metrics"
)

// Service wires one agent's trading operations to a broker, an audit
// log, and (optionally) a mandate engine. A nil Engine means no mandate
// governs this agent: orders flow straight to the broker and audit
// entries carry no mandate fields.
type Service struct {
	Broker  broker.Adapter
	Audit   *audit.Logger
	Engine  *mandate.Engine
	AgentID string

	// Provenance of the loaded mandate, recorded in audit entries.
	MandateID   string
	MandateHash string
}

func (s *Service) log(in audit.LogInput) error {
	in.AgentID = s.AgentID
	if _, err := s.Audit.Log(in); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	metrics.AuditEntriesWritten.WithLabelValues(in.Action).Inc()
	return nil
}

// toMap round-trips a struct through JSON so audit entries store the
// wire shape, not Go types.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
