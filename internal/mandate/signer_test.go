package mandate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jcgs2503/vestbridge/internal/identity"
)

const sampleMandate = `mandate_id: mnd_sample01
version: 1
permissions:
  max_order_size_usd: 1000
  blocked_symbols:
    - GME
created_at: 2026-01-15T00:00:00Z
description: test mandate
`

func writeMandateFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleMandate), 0o644))
	return path
}

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, pub, err := identity.GenerateKeypair()
	require.NoError(t, err)

	path := writeMandateFile(t)
	require.NoError(t, Sign(path, priv))

	ok, err := VerifyFile(path, pub)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSign_WritesSignatureFields(t *testing.T) {
	priv, _, err := identity.GenerateKeypair()
	require.NoError(t, err)

	path := writeMandateFile(t)
	require.NoError(t, Sign(path, priv))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	sig, _ := doc["_signature"].(string)
	assert.True(t, strings.HasPrefix(sig, "ed25519:"))
	signedBy, _ := doc["_signed_by"].(string)
	assert.True(t, strings.HasPrefix(signedBy, "owner:"))
	assert.Len(t, strings.TrimPrefix(signedBy, "owner:"), 64)
	assert.NotEmpty(t, doc["_signed_at"])
}

func TestSign_LocksFileReadOnly(t *testing.T) {
	priv, _, err := identity.GenerateKeypair()
	require.NoError(t, err)

	path := writeMandateFile(t)
	require.NoError(t, Sign(path, priv))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())
}

func TestSign_ResignReplacesSignature(t *testing.T) {
	priv, pub, err := identity.GenerateKeypair()
	require.NoError(t, err)

	path := writeMandateFile(t)
	require.NoError(t, Sign(path, priv))
	require.NoError(t, Sign(path, priv))

	ok, err := VerifyFile(path, pub)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_WrongKeyFails(t *testing.T) {
	priv, _, err := identity.GenerateKeypair()
	require.NoError(t, err)
	_, otherPub, err := identity.GenerateKeypair()
	require.NoError(t, err)

	path := writeMandateFile(t)
	require.NoError(t, Sign(path, priv))

	ok, err := VerifyFile(path, otherPub)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_TamperedFieldFails(t *testing.T) {
	priv, pub, err := identity.GenerateKeypair()
	require.NoError(t, err)

	path := writeMandateFile(t)
	require.NoError(t, Sign(path, priv))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	perms := doc["permissions"].(map[string]any)
	perms["max_order_size_usd"] = 1_000_000

	assert.False(t, Verify(doc, pub))
}

func TestVerify_MissingSignatureReturnsFalse(t *testing.T) {
	_, pub, err := identity.GenerateKeypair()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(sampleMandate), &doc))

	assert.False(t, Verify(doc, pub))
}

func TestVerify_MalformedHexReturnsFalse(t *testing.T) {
	_, pub, err := identity.GenerateKeypair()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(sampleMandate), &doc))
	doc["_signature"] = "ed25519:not-hex"

	assert.False(t, Verify(doc, pub))
}

func TestVerify_DoesNotMutateInput(t *testing.T) {
	priv, pub, err := identity.GenerateKeypair()
	require.NoError(t, err)

	path := writeMandateFile(t)
	require.NoError(t, Sign(path, priv))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	require.True(t, Verify(doc, pub))
	assert.Contains(t, doc, "_signature")
	// Idempotent: a second call sees the same document.
	assert.True(t, Verify(doc, pub))
}

func TestComputeHash(t *testing.T) {
	path := writeMandateFile(t)

	hash, err := ComputeHash(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "sha256:"))
	assert.Len(t, hash, len("sha256:")+64)

	again, err := ComputeHash(path)
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}
