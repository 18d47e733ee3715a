package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

// Verifier independently re-walks a log file and proves (or disproves)
// that the hash chain and per-entry hashes are intact. It shares the
// canonical hash computation with the logger but nothing else.
type Verifier struct{}

// NewVerifier creates a verifier.
func NewVerifier() *Verifier { return &Verifier{} }

// Verify reads every line of the log in order and checks, per entry:
// the prev_hash link against the previous entry's entry_hash (nil for
// the first entry), then the entry's own recomputed hash. The first
// discrepancy halts the walk; EntriesChecked is its 1-based index. An
// empty or absent file verifies clean with zero entries.
func (v *Verifier) Verify(path string) (*model.VerificationResult, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return &model.VerificationResult{Valid: true, EntriesChecked: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var (
		expected *string
		checked  int
		lineNo   int
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return &model.VerificationResult{
				Valid:          false,
				EntriesChecked: checked,
				FirstError:     fmt.Sprintf("line %d: failed to parse entry: %v", lineNo, err),
			}, nil
		}
		checked++

		if !hashEqual(entry.PrevHash, expected) {
			return &model.VerificationResult{
				Valid:          false,
				EntriesChecked: checked,
				FirstError: fmt.Sprintf("entry %d (%s): prev_hash mismatch: expected %s, got %s",
					checked, entry.EventID, hashString(expected), hashString(entry.PrevHash)),
			}, nil
		}

		computed, err := ComputeEntryHash(&entry)
		if err != nil {
			return nil, err
		}
		if entry.EntryHash == nil || *entry.EntryHash != computed {
			return &model.VerificationResult{
				Valid:          false,
				EntriesChecked: checked,
				FirstError: fmt.Sprintf("entry %d (%s): entry_hash mismatch: expected %s, got %s",
					checked, entry.EventID, computed, hashString(entry.EntryHash)),
			}, nil
		}

		expected = entry.EntryHash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return &model.VerificationResult{Valid: true, EntriesChecked: checked}, nil
}

func hashEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func hashString(h *string) string {
	if h == nil {
		return "null"
	}
	return *h
}
