package model

import "time"

// AgentMetadata describes one registered trading agent. Each agent owns a
// directory under agents/ holding this metadata and its audit log.
type AgentMetadata struct {
	AgentID   string    `yaml:"agent_id" json:"agent_id"`
	Name      string    `yaml:"name" json:"name"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	Mandate   string    `yaml:"mandate" json:"mandate"`
}
