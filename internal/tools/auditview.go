package tools

import (
	"time"
)

// ActionSummary is the agent-visible view of one audit entry. Hash
// chain fields and mandate hashes are deliberately omitted: the agent
// sees what happened and why, not the integrity internals.
type ActionSummary struct {
	Action        string         `json:"action"`
	Timestamp     time.Time      `json:"timestamp"`
	Params        map[string]any `json:"params"`
	MandateCheck  string         `json:"mandate_check,omitempty"`
	MandateReason string         `json:"mandate_reason,omitempty"`
	Status        string         `json:"status,omitempty"`
}

// RecentActions summarizes the agent's last n audited actions in
// chronological order.
func (s *Service) RecentActions(n int) ([]ActionSummary, error) {
	entries, err := s.Audit.ReadEntries(n)
	if err != nil {
		return nil, err
	}

	summaries := make([]ActionSummary, 0, len(entries))
	for _, entry := range entries {
		summary := ActionSummary{
			Action:    entry.Action,
			Timestamp: entry.Timestamp,
			Params:    entry.Params,
		}
		if entry.MandateCheck != nil {
			summary.MandateCheck = *entry.MandateCheck
		}
		if entry.MandateReason != nil {
			summary.MandateReason = *entry.MandateReason
		}
		if entry.Result != nil {
			if status, ok := entry.Result["status"].(string); ok {
				summary.Status = status
			} else {
				summary.Status = "ok"
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
