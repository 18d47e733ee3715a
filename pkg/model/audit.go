package model

import "time"

// Mandate check outcomes recorded on audit entries. An absent value means
// no mandate governed the action.
const (
	MandateCheckPass = "PASS"
	MandateCheckFail = "FAIL"
)

// AuditEntry is one line of the append-only JSONL audit log. EntryHash
// covers the canonical encoding of the entry with entry_hash and
// signature removed; PrevHash chains it to the preceding line (nil for
// the first entry). Entries are immutable once written.
//
// Optional fields are pointers so that the persisted JSON distinguishes
// null from a present value; the hash is computed over the full field
// set including nulls, which keeps the encoding stable across
// read/rewrite cycles.
type AuditEntry struct {
	EventID       string         `json:"event_id"`
	Timestamp     time.Time      `json:"timestamp"`
	AgentID       string         `json:"agent_id"`
	Action        string         `json:"action"`
	Params        map[string]any `json:"params"`
	MandateID     *string        `json:"mandate_id"`
	MandateHash   *string        `json:"mandate_hash"`
	MandateCheck  *string        `json:"mandate_check"`
	MandateReason *string        `json:"mandate_reason"`
	Result        map[string]any `json:"result"`
	PrevHash      *string        `json:"prev_hash"`
	EntryHash     *string        `json:"entry_hash"`
	Signature     *string        `json:"signature"`
}

// VerificationResult reports the outcome of an audit chain walk. On
// failure, EntriesChecked is the 1-based index of the first bad entry.
type VerificationResult struct {
	Valid          bool   `json:"valid"`
	EntriesChecked int    `json:"entries_checked"`
	FirstError     string `json:"first_error,omitempty"`
}
