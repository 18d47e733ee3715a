// Package identity manages the owner's Ed25519 signing keypair and the
// per-agent directory registry. The owner keypair is the trust root:
// mandates are only enforceable because only the owner's private key can
// produce a valid signature over them.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
	"github.com/jcgs2503/vestbridge/pkg/fsutil"
)

const (
	pemTypePrivate          = "PRIVATE KEY"
	pemTypeEncryptedPrivate = "VEST ENCRYPTED PRIVATE KEY"
	pemTypePublic           = "PUBLIC KEY"

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// GenerateKeypair creates a fresh Ed25519 keypair.
func GenerateKeypair() (ed25519.PrivateKey, ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate keypair: %w", err)
	}
	return priv, pub, nil
}

// WritePrivateKey persists the private key as PEM with owner-read-only
// permissions (0400). A non-empty passphrase encrypts the key at rest
// with scrypt-derived secretbox.
func WritePrivateKey(path string, key ed25519.PrivateKey, passphrase []byte) error {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}

	var block *pem.Block
	if len(passphrase) > 0 {
		block, err = encryptKeyBlock(der, passphrase)
		if err != nil {
			return err
		}
	} else {
		block = &pem.Block{Type: pemTypePrivate, Bytes: der}
	}

	return fsutil.AtomicWrite(path, pem.EncodeToMemory(block), 0o400)
}

// WritePublicKey persists the public key as world-readable PEM.
func WritePublicKey(path string, key ed25519.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}
	block := &pem.Block{Type: pemTypePublic, Bytes: der}
	return fsutil.AtomicWrite(path, pem.EncodeToMemory(block), 0o644)
}

// LoadPrivateKey reads the owner private key. Returns E_NOT_FOUND if the
// file is absent, E_PASSPHRASE if the key is encrypted and the passphrase
// is missing or wrong, and E_KEY_TYPE if the stored key is not Ed25519.
func LoadPrivateKey(path string, passphrase []byte) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errclass.ErrNotFound.WithMessagef("owner private key not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errclass.ErrKeyType.WithMessagef("%s is not a PEM file", path)
	}

	der := block.Bytes
	if block.Type == pemTypeEncryptedPrivate {
		der, err = decryptKeyBlock(block, passphrase)
		if err != nil {
			return nil, err
		}
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errclass.ErrKeyType.WithMessagef("expected ed25519 private key, got %T", parsed)
	}
	return key, nil
}

// LoadPublicKey reads the owner public key. Returns E_NOT_FOUND if the
// file is absent and E_KEY_TYPE if the stored key is not Ed25519.
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errclass.ErrNotFound.WithMessagef("owner public key not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errclass.ErrKeyType.WithMessagef("%s is not a PEM file", path)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errclass.ErrKeyType.WithMessagef("expected ed25519 public key, got %T", parsed)
	}
	return key, nil
}

// Fingerprint returns hex(SHA-256(raw public key bytes)): a stable,
// human-checkable identity tag for the owner.
func Fingerprint(key ed25519.PublicKey) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:])
}

// KeypairExists reports whether both owner key files are present.
func KeypairExists(privatePath, publicPath string) bool {
	if _, err := os.Stat(privatePath); err != nil {
		return false
	}
	_, err := os.Stat(publicPath)
	return err == nil
}

// GenerateAndStore generates a new keypair and writes both keys.
func GenerateAndStore(privatePath, publicPath string, passphrase []byte) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	priv, pub, err := GenerateKeypair()
	if err != nil {
		return nil, nil, err
	}
	if err := WritePrivateKey(privatePath, priv, passphrase); err != nil {
		return nil, nil, err
	}
	if err := WritePublicKey(publicPath, pub); err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

func encryptKeyBlock(der, passphrase []byte) (*pem.Block, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	boxKey, err := deriveBoxKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], der, &nonce, boxKey)

	return &pem.Block{
		Type: pemTypeEncryptedPrivate,
		Headers: map[string]string{
			"KDF":  "scrypt",
			"Salt": hex.EncodeToString(salt),
		},
		Bytes: sealed,
	}, nil
}

func decryptKeyBlock(block *pem.Block, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errclass.ErrPassphrase.WithMessage("private key is encrypted; passphrase required")
	}
	salt, err := hex.DecodeString(block.Headers["Salt"])
	if err != nil {
		return nil, errclass.ErrPassphrase.WithMessage("malformed salt header")
	}
	boxKey, err := deriveBoxKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	if len(block.Bytes) < 24 {
		return nil, errclass.ErrPassphrase.WithMessage("ciphertext too short")
	}
	var nonce [24]byte
	copy(nonce[:], block.Bytes[:24])
	der, ok := secretbox.Open(nil, block.Bytes[24:], &nonce, boxKey)
	if !ok {
		return nil, errclass.ErrPassphrase.WithMessage("wrong passphrase")
	}
	return der, nil
}

func deriveBoxKey(passphrase, salt []byte) (*[32]byte, error) {
	derived, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var boxKey [32]byte
	copy(boxKey[:], derived)
	return &boxKey, nil
}
