package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcgs2503/vestbridge/internal/audit"
	"github.com/jcgs2503/vestbridge/pkg/color"
	"github.com/jcgs2503/vestbridge/pkg/config"
	"github.com/jcgs2503/vestbridge/pkg/model"
	"github.com/jcgs2503/vestbridge/pkg/webhook"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail commands",
}

var (
	auditAgent      string
	auditShowLast   int
	auditExportFmt  string
	auditExportPath string
)

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit log hash chain integrity",
	Long: `Re-walk the agent's audit log and verify every entry: the hash
chain linking each entry to its predecessor, and each entry's own
content hash. Exits non-zero at the first discrepancy and notifies
any configured webhooks.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()
		meta := resolveAgent(cfg, auditAgent)
		path := cfg.AgentAuditPath(meta.AgentID)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("No audit log found for agent %s\n", meta.AgentID)
			return
		}

		result, err := audit.NewVerifier().Verify(path)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(result)
		}

		if result.Valid {
			if !jsonOutput {
				fmt.Printf("Audit log verified: %d entries, chain intact.\n", result.EntriesChecked)
			}
			return
		}

		if !jsonOutput {
			fmt.Printf("%s at entry %d\n", color.Error("VERIFICATION FAILED"), result.EntriesChecked)
			fmt.Printf("Error: %s\n", result.FirstError)
		}
		notifyTampered(cfg, meta.AgentID, path, result)
		os.Exit(1)
	},
}

var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print recent audit entries",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()
		meta := resolveAgent(cfg, auditAgent)
		path := cfg.AgentAuditPath(meta.AgentID)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("No audit log found for agent %s\n", meta.AgentID)
			return
		}

		logger, err := audit.NewLogger(path)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		entries, err := logger.ReadEntries(auditShowLast)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(entries)
			return
		}

		for _, entry := range entries {
			checkStr := ""
			if entry.MandateCheck != nil {
				tag := *entry.MandateCheck
				if tag == model.MandateCheckFail {
					tag = color.Error(tag)
				} else {
					tag = color.Success(tag)
				}
				checkStr = fmt.Sprintf(" [%s]", tag)
			}
			fmt.Printf("  %s  %-15s%s\n",
				entry.Timestamp.UTC().Format("2006-01-02T15:04:05"), entry.Action, checkStr)
			if entry.MandateReason != nil {
				fmt.Printf("    reason: %s\n", *entry.MandateReason)
			}
		}
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit log to JSON or CSV",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()
		meta := resolveAgent(cfg, auditAgent)
		path := cfg.AgentAuditPath(meta.AgentID)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("No audit log found for agent %s\n", meta.AgentID)
			return
		}

		logger, err := audit.NewLogger(path)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
		entries, err := logger.ReadEntries(0)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		var content string
		switch auditExportFmt {
		case "json":
			content, err = exportJSON(entries)
		case "csv":
			content, err = exportCSV(entries)
		default:
			fmtErr("unknown format %q (want json or csv)", auditExportFmt)
			os.Exit(1)
		}
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		if auditExportPath != "" {
			if err := os.WriteFile(auditExportPath, []byte(content), 0o644); err != nil {
				fmtErr("%v", err)
				os.Exit(1)
			}
			fmt.Printf("Exported %d entries to %s\n", len(entries), auditExportPath)
			return
		}
		fmt.Print(content)
	},
}

func exportJSON(entries []model.AuditEntry) (string, error) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// exportCSV flattens entries into one row per entry; the params and
// result maps are JSON-encoded into single cells.
func exportCSV(entries []model.AuditEntry) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{
		"event_id", "timestamp", "agent_id", "action", "params",
		"mandate_id", "mandate_hash", "mandate_check", "mandate_reason",
		"result", "prev_hash", "entry_hash",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, entry := range entries {
		params, err := json.Marshal(entry.Params)
		if err != nil {
			return "", err
		}
		result := ""
		if entry.Result != nil {
			raw, err := json.Marshal(entry.Result)
			if err != nil {
				return "", err
			}
			result = string(raw)
		}
		row := []string{
			entry.EventID,
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.AgentID,
			entry.Action,
			string(params),
			derefOrEmpty(entry.MandateID),
			derefOrEmpty(entry.MandateHash),
			derefOrEmpty(entry.MandateCheck),
			derefOrEmpty(entry.MandateReason),
			result,
			derefOrEmpty(entry.PrevHash),
			derefOrEmpty(entry.EntryHash),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func notifyTampered(cfg *config.Config, agentID, path string, result *model.VerificationResult) {
	if len(cfg.Webhooks) == 0 {
		return
	}
	notifier := webhook.NewNotifier(cfg.Webhooks, nil)
	notifier.Notify(webhook.EventAuditTampered, map[string]any{
		"agent_id":        agentID,
		"path":            path,
		"entries_checked": result.EntriesChecked,
		"first_error":     result.FirstError,
	})
	notifier.Close()
}

func init() {
	auditCmd.PersistentFlags().StringVar(&auditAgent, "agent", "", "agent ID (default: first agent)")
	auditShowCmd.Flags().IntVar(&auditShowLast, "last", 20, "number of entries to show")
	auditExportCmd.Flags().StringVar(&auditExportFmt, "format", "json", "export format (json or csv)")
	auditExportCmd.Flags().StringVar(&auditExportPath, "output", "", "output file path")
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditShowCmd)
	auditCmd.AddCommand(auditExportCmd)
	rootCmd.AddCommand(auditCmd)
}
