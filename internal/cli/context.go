package cli

import (
	"fmt"
	"os"

	"github.com/jcgs2503/vestbridge/internal/identity"
	"github.com/jcgs2503/vestbridge/pkg/color"
	"github.com/jcgs2503/vestbridge/pkg/config"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

// requireConfig loads the configuration from the vest dir, or exits.
func requireConfig() *config.Config {
	cfg, err := config.Load(config.DefaultDir())
	if err != nil {
		fmtErr("cannot load configuration: %v", err)
		os.Exit(1)
	}
	return cfg
}

// resolveAgent returns the agent to operate on: the --agent flag value if
// given, otherwise the first registered agent (created if none exist).
func resolveAgent(cfg *config.Config, agentID string) *model.AgentMetadata {
	if agentID != "" {
		meta, err := identity.LoadAgent(cfg.AgentsDir(), agentID)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		return meta
	}
	meta, err := identity.GetOrCreateDefaultAgent(cfg.AgentsDir())
	if err != nil {
		fmtErr("cannot resolve agent: %v", err)
		os.Exit(1)
	}
	return meta
}

func fmtErr(format string, args ...any) {
	prefix := "vest: "
	if color.Enabled() {
		prefix = color.Error("vest:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
