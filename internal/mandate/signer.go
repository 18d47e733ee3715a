package mandate

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcgs2503/vestbridge/internal/identity"
	"github.com/jcgs2503/vestbridge/pkg/errclass"
	"github.com/jcgs2503/vestbridge/pkg/jsonutil"
)

const signatureScheme = "ed25519"

// Sign signs a mandate YAML file in place with the owner's private key.
// Any existing signature fields are stripped before signing, so
// re-signing an already signed file is safe. The file is made writable
// only for the duration of the write, then locked back to 0444.
func Sign(path string, key ed25519.PrivateKey) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errclass.ErrNotFound.WithMessagef("mandate not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("read mandate: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errclass.ErrMandateInvalid.WithMessagef("parse %s: %v", path, err)
	}
	if doc == nil {
		return errclass.ErrMandateInvalid.WithMessagef("empty mandate file: %s", path)
	}

	stripSignatureFields(doc)
	payload, err := jsonutil.CanonicalMarshal(doc)
	if err != nil {
		return err
	}
	signature := ed25519.Sign(key, payload)

	pub := key.Public().(ed25519.PublicKey)
	doc["_signature"] = signatureScheme + ":" + hex.EncodeToString(signature)
	doc["_signed_at"] = time.Now().UTC().Format(time.RFC3339)
	doc["_signed_by"] = "owner:" + identity.Fingerprint(pub)

	signed, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal mandate: %w", err)
	}

	// Unlock, write, relock.
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("unlock mandate: %w", err)
	}
	if err := os.WriteFile(path, signed, 0o644); err != nil {
		return fmt.Errorf("write mandate: %w", err)
	}
	if err := os.Chmod(path, 0o444); err != nil {
		return fmt.Errorf("lock mandate: %w", err)
	}
	return nil
}

// Verify checks a mandate document's signature against the owner public
// key. It strips the signature fields itself and never mutates the
// caller's map. A missing signature, malformed hex, or cryptographic
// mismatch all return false, never an error.
func Verify(doc map[string]any, pub ed25519.PublicKey) bool {
	payload := make(map[string]any, len(doc))
	for k, v := range doc {
		payload[k] = v
	}

	sigField, _ := payload["_signature"].(string)
	stripSignatureFields(payload)
	if sigField == "" {
		return false
	}

	signature, err := hex.DecodeString(strings.TrimPrefix(sigField, signatureScheme+":"))
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false
	}

	canonical, err := jsonutil.CanonicalMarshal(payload)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, canonical, signature)
}

// VerifyFile loads a mandate YAML file and verifies its signature.
func VerifyFile(path string, pub ed25519.PublicKey) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, errclass.ErrNotFound.WithMessagef("mandate not found: %s", path)
	}
	if err != nil {
		return false, fmt.Errorf("read mandate: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, errclass.ErrMandateInvalid.WithMessagef("parse %s: %v", path, err)
	}
	if doc == nil {
		return false, nil
	}
	return Verify(doc, pub), nil
}

// IsSigned reports whether a mandate file carries a signature field. It
// says nothing about the signature's validity.
func IsSigned(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, errclass.ErrNotFound.WithMessagef("mandate not found: %s", path)
	}
	if err != nil {
		return false, fmt.Errorf("read mandate: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, errclass.ErrMandateInvalid.WithMessagef("parse %s: %v", path, err)
	}
	_, ok := doc["_signature"]
	return ok, nil
}

// ComputeHash returns the content hash of the raw mandate file bytes,
// recorded in audit entries as a provenance tag. It is not a substitute
// for signature verification.
func ComputeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read mandate: %w", err)
	}
	return jsonutil.HashBytes(data), nil
}

func stripSignatureFields(doc map[string]any) {
	delete(doc, "_signature")
	delete(doc, "_signed_at")
	delete(doc, "_signed_by")
}
