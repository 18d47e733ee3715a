// Package audit implements the append-only, hash-chained JSONL audit log
// and its independent verifier. Each entry's prev_hash points at the
// previous entry's entry_hash, so silent insertion, deletion, or
// reordering is detectable. The log is also an input to policy decisions:
// daily notional and trade-count limits are computed by replaying it.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcgs2503/vestbridge/pkg/jsonutil"
	"github.com/jcgs2503/vestbridge/pkg/model"
)

// Logger appends hash-chained entries to a single per-agent log file.
// The read-last-hash-then-append sequence is serialized by an in-process
// mutex plus an exclusive flock, so concurrent evaluations for the same
// agent cannot fork the chain.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger constructs a logger for one log file, reading the file once
// so that a broken tail fails fast rather than at first append.
func NewLogger(path string) (*Logger, error) {
	l := &Logger{path: path}
	if _, err := l.lastHash(); err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the underlying log file path.
func (l *Logger) Path() string { return l.path }

// LogInput carries the fields of a new audit entry. Empty mandate fields
// are recorded as null, meaning no mandate governed the action.
type LogInput struct {
	AgentID       string
	Action        string
	Params        map[string]any
	MandateID     string
	MandateHash   string
	MandateCheck  string
	MandateReason string
	Result        map[string]any
}

// Log builds, hashes, and durably appends a new entry, returning it.
func (l *Logger) Log(in LogInput) (*model.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	// O_APPEND keeps writes legal on logs carrying the OS append-only
	// inode flag; without it the kernel rejects the open outright.
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return nil, fmt.Errorf("lock audit log: %w", err)
	}
	defer unlockFile(file)

	prevHash, err := lastHashLocked(file)
	if err != nil {
		return nil, err
	}

	entry := &model.AuditEntry{
		EventID:       NewEventID(),
		Timestamp:     time.Now().UTC(),
		AgentID:       in.AgentID,
		Action:        in.Action,
		Params:        in.Params,
		MandateID:     optional(in.MandateID),
		MandateHash:   optional(in.MandateHash),
		MandateCheck:  optional(in.MandateCheck),
		MandateReason: optional(in.MandateReason),
		Result:        in.Result,
		PrevHash:      prevHash,
	}

	hash, err := ComputeEntryHash(entry)
	if err != nil {
		return nil, err
	}
	entry.EntryHash = &hash

	line, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal audit entry: %w", err)
	}

	if _, err := file.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("write audit entry: %w", err)
	}
	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("sync audit log: %w", err)
	}

	return entry, nil
}

// ReadEntries parses every line of the log. lastN > 0 limits the result
// to the last N entries, in original order.
func (l *Logger) ReadEntries(lastN int) ([]model.AuditEntry, error) {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var entries []model.AuditEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry model.AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("parse audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	if lastN > 0 && len(entries) > lastN {
		entries = entries[len(entries)-lastN:]
	}
	return entries, nil
}

// DailyStats replays the log for the current UTC calendar day and
// returns the agent's executed notional and trade count: every
// place_order entry with mandate_check PASS, summing
// result.filled_price * params.qty. This is the authoritative source
// for TradingContext daily limits.
func (l *Logger) DailyStats(agentID string) (notional float64, trades int, err error) {
	entries, err := l.ReadEntries(0)
	if err != nil {
		return 0, 0, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, entry := range entries {
		if entry.AgentID != agentID {
			continue
		}
		if !entry.Timestamp.UTC().Truncate(24 * time.Hour).Equal(today) {
			continue
		}
		if entry.Action != "place_order" {
			continue
		}
		if entry.MandateCheck == nil || *entry.MandateCheck != model.MandateCheckPass {
			continue
		}

		if price, ok := number(entry.Result, "filled_price"); ok {
			if qty, ok := number(entry.Params, "qty"); ok {
				notional += price * qty
			}
		}
		trades++
	}
	return notional, trades, nil
}

// ComputeEntryHash hashes the canonical encoding of an entry with
// entry_hash and signature removed. Shared with the verifier so both
// sides agree byte-for-byte.
func ComputeEntryHash(entry *model.AuditEntry) (string, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal entry for hashing: %w", err)
	}
	var hashable map[string]any
	if err := json.Unmarshal(raw, &hashable); err != nil {
		return "", fmt.Errorf("normalize entry for hashing: %w", err)
	}
	delete(hashable, "entry_hash")
	delete(hashable, "signature")
	return jsonutil.Hash(hashable)
}

// NewEventID returns a fresh event identifier (evt_ + 12 hex chars).
func NewEventID() string {
	return "evt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// lastHash reads the hash of the final entry, or nil for an empty or
// absent log.
func (l *Logger) lastHash() (*string, error) {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()
	return lastHashLocked(file)
}

func lastHashLocked(file *os.File) (*string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek audit log: %w", err)
	}

	var lastLine string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lastLine = line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if lastLine == "" {
		return nil, nil
	}

	var entry model.AuditEntry
	if err := json.Unmarshal([]byte(lastLine), &entry); err != nil {
		return nil, fmt.Errorf("parse last audit entry: %w", err)
	}
	return entry.EntryHash, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func number(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key].(float64)
	return v, ok
}
