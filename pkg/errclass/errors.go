// Package errclass defines the stable, machine-readable error classes
// surfaced by VestBridge operations.
package errclass

import "fmt"

// VestError is a stable, machine-readable error class.
type VestError struct {
	Code    string
	Message string
}

func (e *VestError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *VestError) Is(target error) bool {
	t, ok := target.(*VestError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new VestError with the same Code but a specific message.
func (e *VestError) WithMessage(msg string) *VestError {
	return &VestError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new VestError with a formatted message.
func (e *VestError) WithMessagef(format string, args ...any) *VestError {
	return &VestError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	// Validation: malformed mandate YAML, missing required fields,
	// invalid enum values in order input.
	ErrMandateInvalid = &VestError{Code: "E_MANDATE_INVALID"}

	// Missing trust material: key files, mandates, agents, audit logs.
	// Callers expecting optional material treat this as fail-open.
	ErrNotFound = &VestError{Code: "E_NOT_FOUND"}

	// A loaded key is not of the expected algorithm or length.
	ErrKeyType = &VestError{Code: "E_KEY_TYPE"}

	// An encrypted private key was loaded without a passphrase, or the
	// passphrase did not decrypt it.
	ErrPassphrase = &VestError{Code: "E_PASSPHRASE"}

	// Integrity failures. Always fatal to the operation that found them.
	ErrSignatureInvalid = &VestError{Code: "E_SIGNATURE_INVALID"}
	ErrAuditChainBroken = &VestError{Code: "E_AUDIT_CHAIN_BROKEN"}
	ErrAuditTampered    = &VestError{Code: "E_AUDIT_TAMPERED"}

	// Requested broker adapter is not implemented.
	ErrBrokerUnsupported = &VestError{Code: "E_BROKER_UNSUPPORTED"}

	// A mandate or agent name that cannot safely become a file name.
	ErrNameInvalid = &VestError{Code: "E_NAME_INVALID"}
)
