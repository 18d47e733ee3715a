package identity_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcgs2503/vestbridge/internal/identity"
	"github.com/jcgs2503/vestbridge/pkg/errclass"
)

func TestCreateAgent(t *testing.T) {
	agentsDir := t.TempDir()

	meta, err := identity.CreateAgent(agentsDir, "alpha")
	require.NoError(t, err)
	assert.True(t, len(meta.AgentID) == len("agt_")+8)
	assert.Equal(t, "alpha", meta.Name)
	assert.Equal(t, "default", meta.Mandate)

	// Directory structure exists.
	info, err := os.Stat(filepath.Join(agentsDir, meta.AgentID, "keys"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(filepath.Join(agentsDir, meta.AgentID, "metadata.yaml"))
	require.NoError(t, err)
}

func TestLoadAgent_RoundTrip(t *testing.T) {
	agentsDir := t.TempDir()

	created, err := identity.CreateAgent(agentsDir, "alpha")
	require.NoError(t, err)

	loaded, err := identity.LoadAgent(agentsDir, created.AgentID)
	require.NoError(t, err)
	assert.Equal(t, created.AgentID, loaded.AgentID)
	assert.Equal(t, "alpha", loaded.Name)
}

func TestLoadAgent_NotFound(t *testing.T) {
	_, err := identity.LoadAgent(t.TempDir(), "agt_missing1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errclass.ErrNotFound))
}

func TestListAgents(t *testing.T) {
	agentsDir := t.TempDir()

	// Empty (or absent) dir lists nothing.
	agents, err := identity.ListAgents(agentsDir)
	require.NoError(t, err)
	assert.Empty(t, agents)

	_, err = identity.CreateAgent(agentsDir, "one")
	require.NoError(t, err)
	_, err = identity.CreateAgent(agentsDir, "two")
	require.NoError(t, err)

	agents, err = identity.ListAgents(agentsDir)
	require.NoError(t, err)
	assert.Len(t, agents, 2)
}

func TestGetOrCreateDefaultAgent(t *testing.T) {
	agentsDir := t.TempDir()

	first, err := identity.GetOrCreateDefaultAgent(agentsDir)
	require.NoError(t, err)
	assert.Equal(t, "default", first.Name)

	// Second call returns the same agent rather than creating another.
	again, err := identity.GetOrCreateDefaultAgent(agentsDir)
	require.NoError(t, err)
	assert.Equal(t, first.AgentID, again.AgentID)

	agents, err := identity.ListAgents(agentsDir)
	require.NoError(t, err)
	assert.Len(t, agents, 1)
}
