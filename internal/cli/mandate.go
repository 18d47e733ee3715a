package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcgs2503/vestbridge/internal/identity"
	"github.com/jcgs2503/vestbridge/internal/mandate"
	"github.com/jcgs2503/vestbridge/pkg/color"
)

var mandateCmd = &cobra.Command{
	Use:   "mandate",
	Short: "Mandate management commands",
}

var mandateCheckPath string

var mandateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a mandate YAML file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(mandateCheckPath); os.IsNotExist(err) {
			fmt.Printf("File not found: %s\n", mandateCheckPath)
			os.Exit(1)
		}

		m, err := mandate.Load(mandateCheckPath)
		if err != nil {
			fmt.Printf("Invalid mandate: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(m)
			return
		}

		fmt.Printf("Mandate is valid: %s\n", color.MandateID(m.MandateID))
		p := m.Permissions
		if len(p.AllowedSymbols) > 0 {
			fmt.Printf("  allowed symbols: %s\n", strings.Join(p.AllowedSymbols, ", "))
		}
		if len(p.BlockedSymbols) > 0 {
			fmt.Printf("  blocked symbols: %s\n", strings.Join(p.BlockedSymbols, ", "))
		}
		if p.MaxOrderSizeUSD != nil {
			fmt.Printf("  max order size: $%.0f\n", *p.MaxOrderSizeUSD)
		}
		if p.MaxDailyNotionalUSD != nil {
			fmt.Printf("  max daily notional: $%.0f\n", *p.MaxDailyNotionalUSD)
		}
		if p.MaxConcentrationPct != nil {
			fmt.Printf("  max concentration: %v%%\n", *p.MaxConcentrationPct)
		}
	},
}

var mandateSignCmd = &cobra.Command{
	Use:   "sign [<mandate-file>]",
	Short: "Sign a mandate with the owner private key",
	Long: `Sign a mandate file with the owner's Ed25519 private key.

Without an argument, signs every mandate in the mandates directory.
Signing strips any previous signature first, so re-signing an edited
mandate is the normal workflow. The file is locked read-only afterward.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		key, err := identity.LoadPrivateKey(cfg.PrivateKeyPath(), nil)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		var paths []string
		if len(args) == 1 {
			paths = []string{args[0]}
		} else {
			paths, err = cfg.MandateFiles()
			if err != nil {
				fmtErr("%v", err)
				os.Exit(1)
			}
			if len(paths) == 0 {
				fmt.Println("No mandate files found.")
				return
			}
		}

		for _, path := range paths {
			if err := mandate.Sign(path, key); err != nil {
				fmtErr("sign %s: %v", path, err)
				os.Exit(1)
			}
			fmt.Printf("Signed %s %s\n", path, color.Dim("(read-only)"))
		}
	},
}

var mandateVerifyCmd = &cobra.Command{
	Use:   "verify [<mandate-file>]",
	Short: "Verify mandate signatures against the owner public key",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		pub, err := identity.LoadPublicKey(cfg.PublicKeyPath())
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		var paths []string
		if len(args) == 1 {
			paths = []string{args[0]}
		} else {
			paths, err = cfg.MandateFiles()
			if err != nil {
				fmtErr("%v", err)
				os.Exit(1)
			}
			if len(paths) == 0 {
				fmt.Println("No mandate files found.")
				return
			}
		}

		type verdict struct {
			Path  string `json:"path"`
			Valid bool   `json:"valid"`
		}
		var verdicts []verdict
		failed := false
		for _, path := range paths {
			valid, err := mandate.VerifyFile(path, pub)
			if err != nil {
				fmtErr("verify %s: %v", path, err)
				os.Exit(1)
			}
			verdicts = append(verdicts, verdict{Path: path, Valid: valid})
			if valid {
				fmt.Printf("%s  %s\n", filepath.Base(path), color.Success("VALID"))
			} else {
				fmt.Printf("%s  %s\n", filepath.Base(path), color.Error("INVALID"))
				failed = true
			}
		}
		if jsonOutput {
			outputJSON(verdicts)
		}
		if failed {
			os.Exit(1)
		}
	},
}

var mandateShowCmd = &cobra.Command{
	Use:   "show [<name>]",
	Short: "Show a mandate's policy and signature status",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		name := "default"
		if len(args) == 1 {
			name = args[0]
		}

		m, err := mandate.LoadNamed(cfg.MandatesDir(), name)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		path := cfg.MandatePath(name)
		signed, _ := mandate.IsSigned(path)

		if jsonOutput {
			outputJSON(map[string]any{
				"mandate": m,
				"signed":  signed,
				"path":    path,
			})
			return
		}

		status := color.Warning("unsigned")
		if signed {
			status = color.Success("signed")
		}
		fmt.Printf("Mandate: %s (version %d, %s)\n", color.MandateID(m.MandateID), m.Version, status)
		if m.Description != "" {
			fmt.Printf("  %s\n", m.Description)
		}
		fmt.Printf("  active checks: %d\n", m.Permissions.ActiveLimits())
		p := m.Permissions
		if p.MaxOrderSizeUSD != nil {
			fmt.Printf("  max order size: $%.0f\n", *p.MaxOrderSizeUSD)
		}
		if p.MaxDailyNotionalUSD != nil {
			fmt.Printf("  max daily notional: $%.0f\n", *p.MaxDailyNotionalUSD)
		}
		if p.MaxDailyTrades != nil {
			fmt.Printf("  max daily trades: %d\n", *p.MaxDailyTrades)
		}
		if len(p.AllowedSymbols) > 0 {
			fmt.Printf("  allowed symbols: %s\n", strings.Join(p.AllowedSymbols, ", "))
		}
		if len(p.BlockedSymbols) > 0 {
			fmt.Printf("  blocked symbols: %s\n", strings.Join(p.BlockedSymbols, ", "))
		}
		if p.MaxConcentrationPct != nil {
			fmt.Printf("  max concentration: %v%%\n", *p.MaxConcentrationPct)
		}
		if p.TradingHoursOnly {
			fmt.Println("  trading hours only: yes")
		}
	},
}

func init() {
	mandateCheckCmd.Flags().StringVar(&mandateCheckPath, "mandate", "", "path to mandate YAML file")
	mandateCheckCmd.MarkFlagRequired("mandate")
	mandateCmd.AddCommand(mandateCheckCmd)
	mandateCmd.AddCommand(mandateSignCmd)
	mandateCmd.AddCommand(mandateVerifyCmd)
	mandateCmd.AddCommand(mandateShowCmd)
	rootCmd.AddCommand(mandateCmd)
}
