package mandate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jcgs2503/vestbridge/pkg/errclass"
	"github.com/jcgs2503/vestbridge/pkg/model"
	"github.com/jcgs2503/vestbridge/pkg/pathutil"
)

// Load parses a mandate YAML file. Missing mandate_id and created_at are
// filled in with generated defaults; an empty document is a validation
// error. Signature metadata in the file is ignored here; the signer owns
// it.
func Load(path string) (*model.Mandate, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errclass.ErrNotFound.WithMessagef("mandate not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read mandate: %w", err)
	}

	var m model.Mandate
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errclass.ErrMandateInvalid.WithMessagef("parse %s: %v", path, err)
	}
	if isEmptyDocument(data) {
		return nil, errclass.ErrMandateInvalid.WithMessagef("empty mandate file: %s", path)
	}

	if m.MandateID == "" {
		m.MandateID = NewMandateID()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return &m, nil
}

// LoadNamed resolves a named mandate in the mandates directory, trying
// <name>.yaml then <name>.yml. The name is validated first so it cannot
// traverse out of the directory.
func LoadNamed(mandatesDir, name string) (*model.Mandate, error) {
	if err := pathutil.ValidateName(name); err != nil {
		return nil, err
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(mandatesDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, errclass.ErrNotFound.WithMessagef("mandate not found: %s", filepath.Join(mandatesDir, name+".yaml"))
}

// NewMandateID returns a fresh mandate identifier (mnd_ + 8 hex chars).
func NewMandateID() string {
	return "mnd_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func isEmptyDocument(data []byte) bool {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return true
	}
	return doc == nil
}
