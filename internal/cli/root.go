package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcgs2503/vestbridge/pkg/color"
)

var (
	jsonOutput bool
	noColor    bool
	rootCmd    = &cobra.Command{
		Use:   "vest",
		Short: "VestBridge - governed trading for AI agents",
		Long: `VestBridge lets AI agents trade within owner-signed mandates.
Every action is written to a tamper-evident audit log, and every order
is checked against the mandate before it reaches a broker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
