package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcgs2503/vestbridge/internal/identity"
	"github.com/jcgs2503/vestbridge/pkg/color"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Agent management commands",
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered agents",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		agents, err := identity.ListAgents(cfg.AgentsDir())
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(agents)
			return
		}

		if len(agents) == 0 {
			fmt.Println("No agents registered. Create one with: vest agent create")
			return
		}
		for _, a := range agents {
			fmt.Printf("  %s  %-20s  created: %s\n",
				color.AgentID(a.AgentID), a.Name, a.CreatedAt.UTC().Format("2006-01-02"))
		}
	},
}

var agentCreateName string

var agentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new agent",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()
		if err := cfg.EnsureDirs(); err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		meta, err := identity.CreateAgent(cfg.AgentsDir(), agentCreateName)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(meta)
			return
		}
		fmt.Printf("Created agent: %s (%s)\n", color.AgentID(meta.AgentID), meta.Name)
	},
}

func init() {
	agentCreateCmd.Flags().StringVar(&agentCreateName, "name", "default", "agent name")
	agentCmd.AddCommand(agentListCmd)
	agentCmd.AddCommand(agentCreateCmd)
	rootCmd.AddCommand(agentCmd)
}
