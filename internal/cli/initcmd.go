package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jcgs2503/vestbridge/internal/identity"
	"github.com/jcgs2503/vestbridge/internal/mandate"
	"github.com/jcgs2503/vestbridge/pkg/color"
	"github.com/jcgs2503/vestbridge/pkg/config"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

var initYes bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up VestBridge: generate keys, create mandate, initialize agent",
	Long: `Interactive setup wizard.

Creates the vest directory structure, generates the owner Ed25519
keypair, writes and signs a default mandate from your answers, and
registers a default agent with an empty audit log.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()
		in := bufio.NewReader(cmd.InOrStdin())

		fmt.Println()
		fmt.Println("VestBridge Setup")
		fmt.Println("================")
		fmt.Println()

		if err := cfg.EnsureDirs(); err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		if _, err := os.Stat(cfg.ConfigPath()); os.IsNotExist(err) {
			if err := cfg.Save(); err != nil {
				fmtErr("%v", err)
				os.Exit(1)
			}
		}

		setupOwnerKeys(cfg, in)
		createDefaultMandate(cfg, in)
		createDefaultAgent(cfg, in)

		fmt.Println()
		fmt.Println("Ready. Start with: vest serve --broker paper")
	},
}

func init() {
	initCmd.Flags().BoolVar(&initYes, "yes", false, "accept all defaults without prompting")
	rootCmd.AddCommand(initCmd)
}

func setupOwnerKeys(cfg *config.Config, in *bufio.Reader) {
	fmt.Println("Generating owner keypair...")

	if identity.KeypairExists(cfg.PrivateKeyPath(), cfg.PublicKeyPath()) {
		fmt.Printf("  Keypair already exists at %s\n", cfg.OwnerDir())
		if !promptConfirm(in, "Overwrite existing keypair?") {
			fmt.Println("  Keeping existing keypair.")
			return
		}
		// AtomicWrite cannot replace a 0400 file in place.
		os.Remove(cfg.PrivateKeyPath())
		os.Remove(cfg.PublicKeyPath())
	}

	if _, _, err := identity.GenerateAndStore(cfg.PrivateKeyPath(), cfg.PublicKeyPath(), nil); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	fmt.Printf("  %s Private key: %s (owner-read only)\n", color.Success("✓"), cfg.PrivateKeyPath())
	fmt.Printf("  %s Public key:  %s\n", color.Success("✓"), cfg.PublicKeyPath())
	fmt.Println()
}

func createDefaultMandate(cfg *config.Config, in *bufio.Reader) {
	fmt.Println("Creating default mandate...")

	maxOrder := promptFloat(in, "Max order size (USD)", 10000)
	maxConcentration := promptFloat(in, "Max single-stock concentration (%)", 20)
	maxDailyNotional := promptFloat(in, "Max daily notional (USD)", 50000)
	maxDailyTrades := promptInt(in, "Max daily trades", 50)
	assetTypes := splitList(promptString(in, "Allowed asset types", "equity"), false)
	blocked := splitList(promptString(in, "Block any symbols?", ""), true)
	allowed := splitList(promptString(in, "Restrict to specific symbols? (leave blank for all)", ""), true)

	maxPortfolioPct := 10.0
	m := model.Mandate{
		MandateID:   mandate.NewMandateID(),
		Version:     1,
		Description: "Default mandate created by vest init",
		Permissions: model.MandatePermissions{
			MaxOrderSizeUSD:         &maxOrder,
			MaxDailyNotionalUSD:     &maxDailyNotional,
			MaxDailyTrades:          &maxDailyTrades,
			AllowedSymbols:          allowed,
			BlockedSymbols:          blocked,
			AllowedSides:            []string{"buy", "sell"},
			AllowedOrderTypes:       []string{"market", "limit"},
			AllowedAssetTypes:       assetTypes,
			MaxConcentrationPct:     &maxConcentration,
			MaxPortfolioPctPerOrder: &maxPortfolioPct,
			TradingHoursOnly:        true,
			RequireLimitOrders:      false,
		},
		CreatedAt: time.Now().UTC(),
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}

	path := cfg.MandatePath("default")
	if _, err := os.Stat(path); err == nil {
		// Make writable if a previous init left it read-only.
		os.Chmod(path, 0o644)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	fmt.Printf("  %s Mandate written to %s\n", color.Success("✓"), path)

	key, err := identity.LoadPrivateKey(cfg.PrivateKeyPath(), nil)
	if err != nil {
		fmt.Printf("  %s Could not sign mandate (no private key found)\n", color.Warning("⚠"))
		os.Chmod(path, 0o444)
		fmt.Println()
		return
	}
	if err := mandate.Sign(path, key); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	fmt.Printf("  %s Mandate signed with owner key\n", color.Success("✓"))
	fmt.Printf("  %s Mandate file set to read-only\n", color.Success("✓"))
	fmt.Println()
}

func createDefaultAgent(cfg *config.Config, in *bufio.Reader) {
	fmt.Println("Creating default agent...")

	existing, err := identity.ListAgents(cfg.AgentsDir())
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		fmt.Printf("  Agent already exists: %s (%s)\n", existing[0].AgentID, existing[0].Name)
		if !promptConfirm(in, "Create another agent?") {
			fmt.Printf("  %s Using existing agent %s\n", color.Success("✓"), color.AgentID(existing[0].AgentID))
			return
		}
	}

	name := promptString(in, "Agent name", "default")
	meta, err := identity.CreateAgent(cfg.AgentsDir(), name)
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}

	auditPath := cfg.AgentAuditPath(meta.AgentID)
	if _, err := os.Stat(auditPath); os.IsNotExist(err) {
		if err := os.WriteFile(auditPath, nil, 0o644); err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
	}

	fmt.Printf("  %s Agent %s created\n", color.Success("✓"), color.AgentID(meta.AgentID))
	fmt.Printf("  %s Audit log initialized\n", color.Success("✓"))
	fmt.Println()
}

func promptString(in *bufio.Reader, label, def string) string {
	if initYes {
		return def
	}
	if def != "" {
		fmt.Printf("  %s [%s]: ", label, def)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptFloat(in *bufio.Reader, label string, def float64) float64 {
	raw := promptString(in, label, strconv.FormatFloat(def, 'f', -1, 64))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Printf("  not a number, using %v\n", def)
		return def
	}
	return v
}

func promptInt(in *bufio.Reader, label string, def int) int {
	raw := promptString(in, label, strconv.Itoa(def))
	v, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Printf("  not a number, using %d\n", def)
		return def
	}
	return v
}

func promptConfirm(in *bufio.Reader, label string) bool {
	raw := promptString(in, label+" (y/N)", "n")
	raw = strings.ToLower(raw)
	return raw == "y" || raw == "yes"
}

func splitList(raw string, upper bool) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if upper {
			part = strings.ToUpper(part)
		}
		out = append(out, part)
	}
	return out
}
