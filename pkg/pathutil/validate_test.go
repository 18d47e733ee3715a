package pathutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
)

func TestValidateName_Accepts(t *testing.T) {
	for _, name := range []string{"default", "research-bot", "agt_a1b2c3d4", "q4.momentum", "A_1"} {
		assert.NoError(t, ValidateName(name), name)
	}
}

func TestValidateName_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"dot dot", ".."},
		{"embedded dot dot", "a..b"},
		{"slash", "mandates/default"},
		{"backslash", `a\b`},
		{"space", "my bot"},
		{"control char", "a\x00b"},
		{"unicode", "crédit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.input)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, errclass.ErrNameInvalid))
		})
	}
}
