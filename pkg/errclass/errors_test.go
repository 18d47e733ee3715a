package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
)

func TestVestError_Error_CodeOnly(t *testing.T) {
	err := &errclass.VestError{Code: "E_TEST"}
	assert.Equal(t, "E_TEST", err.Error())
}

func TestVestError_Error_WithMessage(t *testing.T) {
	err := errclass.ErrNotFound.WithMessage("owner private key not found")
	assert.Equal(t, "E_NOT_FOUND: owner private key not found", err.Error())
}

func TestVestError_Is_SameCode(t *testing.T) {
	err := errclass.ErrSignatureInvalid.WithMessage("mandate default.yaml")
	require.True(t, errors.Is(err, errclass.ErrSignatureInvalid))
}

func TestVestError_Is_DifferentCode(t *testing.T) {
	err := errclass.ErrAuditTampered.WithMessage("entry 3")
	require.False(t, errors.Is(err, errclass.ErrAuditChainBroken))
}

func TestVestError_Is_StandardError(t *testing.T) {
	err := errclass.ErrMandateInvalid.WithMessage("empty file")
	require.False(t, errors.Is(err, errors.New("empty file")))
}

func TestVestError_WithMessagef(t *testing.T) {
	err := errclass.ErrKeyType.WithMessagef("expected ed25519, got %s", "rsa")
	assert.Equal(t, "E_KEY_TYPE", err.Code)
	assert.Contains(t, err.Error(), "expected ed25519, got rsa")
}

func TestVestError_WithMessage_DoesNotMutateBase(t *testing.T) {
	_ = errclass.ErrNotFound.WithMessage("something specific")
	assert.Empty(t, errclass.ErrNotFound.Message)
}

func TestVestError_WrappedMatch(t *testing.T) {
	inner := errclass.ErrPassphrase.WithMessage("decrypt failed")
	wrapped := fmt.Errorf("load key: %w", inner)
	require.True(t, errors.Is(wrapped, errclass.ErrPassphrase))
}
