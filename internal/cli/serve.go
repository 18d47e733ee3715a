package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/internal/broker"
	"github.com/jcgs2503/vestbridge/internal/identity"
	"github.com/jcgs2503/vestbridge/internal/isolation"
	"github.com/jcgs2503/vestbridge/internal/mandate"
	"github.com/jcgs2503/vestbridge/internal/server"
	"github.com/jcgs2503/vestbridge/internal/tools"
	"github.com/jcgs2503/vestbridge/pkg/color"
	"github.com/jcgs2503/vestbridge/pkg/config"
	"github.com/jcgs2503/vestbridge/pkg/webhook"
)

var (
	serveBroker       string
	servePort         int
	serveAgent        string
	serveSkipSecurity bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the VestBridge tool server",
	Long: `Start the agent-facing HTTP tool server.

Runs startup security checks (mandate signatures, file permissions,
audit logs), locks down the trust-root files, then serves the trading
tools on the given port. Refuses to start if any mandate carries an
invalid signature.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()
		if err := cfg.EnsureDirs(); err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		if !cmd.Flags().Changed("broker") && cfg.DefaultBroker != "" {
			serveBroker = cfg.DefaultBroker
		}

		fmt.Println()
		fmt.Println("VestBridge v0.1.0")
		fmt.Println("=================")

		if !serveSkipSecurity {
			if !runSecurityChecks(cfg) {
				os.Exit(1)
			}
		}

		agentMeta := resolveAgent(cfg, serveAgent)
		svc, mandateInfo := buildService(cfg, agentMeta.AgentID)

		logger, err := buildLogger(cfg.Logging.Level)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		defer logger.Sync()

		notifier := webhook.NewNotifier(cfg.Webhooks, logger)
		defer notifier.Close()

		fmt.Println()
		fmt.Printf("Broker: %s (starting balance: $100,000)\n", serveBroker)
		fmt.Printf("Agent: %s\n", color.AgentID(agentMeta.AgentID))
		if mandateInfo != "" {
			fmt.Printf("Mandate: %s\n", mandateInfo)
		}
		fmt.Println()
		fmt.Printf("Tool server ready on :%d\n", servePort)
		fmt.Println("Connect your AI agent to start trading.")

		srv := server.New(svc, logger, notifier)
		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", servePort),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- httpSrv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				fmtErr("server: %v", err)
				os.Exit(1)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveBroker, "broker", "paper", "broker adapter to use")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port for the HTTP tool server")
	serveCmd.Flags().StringVar(&serveAgent, "agent", "", "agent ID (default: first agent)")
	serveCmd.Flags().BoolVar(&serveSkipSecurity, "skip-security", false, "skip startup security checks")
	rootCmd.AddCommand(serveCmd)
}

// runSecurityChecks prints the startup checklist and reports whether the
// server may start. An invalid mandate signature is the only fatal
// condition; everything else degrades with a warning.
func runSecurityChecks(cfg *config.Config) bool {
	fmt.Println("Security checks:")
	allPassed := true

	if identity.KeypairExists(cfg.PrivateKeyPath(), cfg.PublicKeyPath()) {
		fmt.Printf("  %s Owner keypair found\n", color.Success("✓"))
	} else {
		fmt.Printf("  %s Owner keypair not found (run 'vest init')\n", color.Warning("⚠"))
	}

	mandatePaths, err := cfg.MandateFiles()
	if err != nil {
		fmtErr("%v", err)
		return false
	}
	if len(mandatePaths) == 0 {
		fmt.Printf("  %s No mandate files found\n", color.Warning("⚠"))
	}
	for _, mp := range mandatePaths {
		name := filepath.Base(mp)
		switch checkMandateSignature(cfg, mp) {
		case signatureValid:
			fmt.Printf("  %s Mandate signature valid (%s)\n", color.Success("✓"), name)
		case signatureInvalid:
			fmt.Printf("  %s FATAL: Mandate %s has invalid signature.\n", color.Error("✗"), name)
			fmt.Println("    Someone may have tampered with this file.")
			fmt.Printf("    Re-sign with: vest mandate sign %s\n", mp)
			allPassed = false
		case signatureMissing:
			fmt.Printf("  %s Mandate %s is unsigned\n", color.Warning("⚠"), name)
		}
	}

	pm := &isolation.PermissionManager{
		PrivateKeyPath: cfg.PrivateKeyPath(),
		PublicKeyPath:  cfg.PublicKeyPath(),
		MandatePaths:   mandatePaths,
		AgentsDir:      cfg.AgentsDir(),
	}
	for _, check := range pm.Lockdown() {
		switch {
		case check.Passed:
			fmt.Printf("  %s %s (%s)\n", color.Success("✓"), check.Name, check.Detail)
		case check.Critical:
			fmt.Printf("  %s %s (%s)\n", color.Error("✗"), check.Name, check.Detail)
			allPassed = false
		default:
			fmt.Printf("  %s %s (%s)\n", color.Warning("⚠"), check.Name, check.Detail)
		}
	}

	fmt.Printf("  %s Running as separate process (PID %d)\n", color.Success("✓"), os.Getpid())

	if !allPassed {
		fmt.Println()
		fmt.Println("  FATAL: Critical security checks failed. Refusing to start.")
		fmt.Println("  Run 'vest mandate sign' to re-sign mandates.")
	}
	return allPassed
}

type signatureState int

const (
	signatureValid signatureState = iota
	signatureInvalid
	signatureMissing
)

func checkMandateSignature(cfg *config.Config, path string) signatureState {
	pub, err := identity.LoadPublicKey(cfg.PublicKeyPath())
	if err != nil {
		return signatureMissing
	}
	valid, err := mandate.VerifyFile(path, pub)
	if err != nil {
		return signatureInvalid
	}
	if !valid {
		// Distinguish unsigned from tampered.
		if signed, _ := mandate.IsSigned(path); !signed {
			return signatureMissing
		}
		return signatureInvalid
	}
	return signatureValid
}

// buildService assembles the tool service for one agent: broker, audit
// log, and the mandate engine if a default mandate loads. Returns a
// human summary of the mandate for the startup banner.
func buildService(cfg *config.Config, agentID string) (*tools.Service, string) {
	adapter, err := broker.New(serveBroker, cfg.PaperStatePath())
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	auditLog, err := audit.NewLogger(cfg.AgentAuditPath(agentID))
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}

	svc := &tools.Service{
		Broker:  adapter,
		Audit:   auditLog,
		AgentID: agentID,
	}

	m, err := mandate.LoadNamed(cfg.MandatesDir(), "default")
	if err != nil {
		// No mandate: the service runs ungoverned.
		return svc, ""
	}

	svc.Engine = mandate.NewEngine(*m)
	svc.MandateID = m.MandateID
	path := cfg.MandatePath("default")
	if hash, err := mandate.ComputeHash(path); err == nil {
		svc.MandateHash = hash
	}

	signed := "unsigned"
	if ok, _ := mandate.IsSigned(path); ok {
		signed = "signed"
	}
	info := fmt.Sprintf("%s (%s, %d active checks)",
		color.MandateID(m.MandateID), signed, m.Permissions.ActiveLimits())
	return svc, info
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
