package isolation

import (
	"os"
	"path/filepath"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

// Lockdown is the startup hardening entry point. It re-applies the
// required mode wherever the current mode deviates, creates missing
// audit logs as empty files, opportunistically marks logs append-only,
// and returns the verification checklist for the caller to display.
// Idempotent: safe to run on every start. Whether to abort on a failed
// critical check is the caller's policy.
func (pm *PermissionManager) Lockdown() []model.SecurityCheck {
	if pm.PrivateKeyPath != "" {
		if info, err := os.Stat(pm.PrivateKeyPath); err == nil && info.Mode().Perm() != privateKeyMode {
			_ = pm.LockPrivateKey(pm.PrivateKeyPath)
		}
	}

	for _, path := range pm.MandatePaths {
		if info, err := os.Stat(path); err == nil && info.Mode().Perm() != mandateMode {
			_ = pm.LockMandate(path)
		}
	}

	if pm.AgentsDir != "" {
		if entries, err := os.ReadDir(pm.AgentsDir); err == nil {
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				audit := filepath.Join(pm.AgentsDir, entry.Name(), "audit.jsonl")
				if _, err := os.Stat(audit); os.IsNotExist(err) {
					if f, err := os.OpenFile(audit, os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
						f.Close()
					}
				}
				pm.LockAuditAppendOnly(audit)
			}
		}
	}

	return pm.VerifyPermissions()
}
