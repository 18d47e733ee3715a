// Package pathutil provides name validation for VestBridge. Mandate and
// agent names become file and directory names under the vest dir, so
// anything that could traverse or escape it is rejected.
package pathutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateName checks mandate/agent name safety.
func ValidateName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("name must not be empty")
	}

	// NFC normalize
	name = norm.NFC.String(name)

	if name == ".." || strings.Contains(name, "..") {
		return errclass.ErrNameInvalid.WithMessagef("name must not contain '..': %s", name)
	}

	if strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("name must not contain separators: %s", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("name must not contain control characters: %q", name)
		}
	}

	if !nameRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("name must match [a-zA-Z0-9._-]+: %s", name)
	}

	return nil
}
