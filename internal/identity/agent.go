package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
	"github.com/jcgs2503/vestbridge/pkg/model"
	"github.com/jcgs2503/vestbridge/pkg/pathutil"
)

// NewAgentID returns a fresh agent identifier (agt_ + 8 hex chars).
func NewAgentID() string {
	return "agt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CreateAgent registers a new agent: a unique ID, a directory under
// agentsDir, and a metadata.yaml describing it.
func CreateAgent(agentsDir, name string) (*model.AgentMetadata, error) {
	if err := pathutil.ValidateName(name); err != nil {
		return nil, err
	}
	meta := &model.AgentMetadata{
		AgentID:   NewAgentID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Mandate:   "default",
	}

	agentDir := filepath.Join(agentsDir, meta.AgentID)
	if err := os.MkdirAll(filepath.Join(agentDir, "keys"), 0o755); err != nil {
		return nil, fmt.Errorf("create agent dir: %w", err)
	}

	data, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal agent metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(agentDir, "metadata.yaml"), data, 0o644); err != nil {
		return nil, fmt.Errorf("write agent metadata: %w", err)
	}
	return meta, nil
}

// LoadAgent reads an agent's metadata by ID.
func LoadAgent(agentsDir, agentID string) (*model.AgentMetadata, error) {
	path := filepath.Join(agentsDir, agentID, "metadata.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errclass.ErrNotFound.WithMessagef("agent not found: %s", agentID)
	}
	if err != nil {
		return nil, fmt.Errorf("read agent metadata: %w", err)
	}

	var meta model.AgentMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse agent metadata: %w", err)
	}
	return &meta, nil
}

// ListAgents returns every registered agent, sorted by directory name.
func ListAgents(agentsDir string) ([]*model.AgentMetadata, error) {
	entries, err := os.ReadDir(agentsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agents dir: %w", err)
	}

	var agents []*model.AgentMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := LoadAgent(agentsDir, entry.Name())
		if err != nil {
			continue // skip directories without valid metadata
		}
		agents = append(agents, meta)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].AgentID < agents[j].AgentID })
	return agents, nil
}

// GetOrCreateDefaultAgent returns the first registered agent, creating a
// "default" agent if none exist.
func GetOrCreateDefaultAgent(agentsDir string) (*model.AgentMetadata, error) {
	agents, err := ListAgents(agentsDir)
	if err != nil {
		return nil, err
	}
	if len(agents) > 0 {
		return agents[0], nil
	}
	return CreateAgent(agentsDir, "default")
}
