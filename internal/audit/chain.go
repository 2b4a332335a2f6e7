// Package audit records engine decisions in an append-only, hash-linked
// ledger. Each entry's hash covers its own fields plus the previous head,
// so any mutation of a recorded entry is detectable by replaying the chain.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/straylight-ai/wintermute/internal/types"
)

// genesisHash anchors the chain before the first entry.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one immutable record in the audit chain.
type Entry struct {
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// computeHash derives the entry hash from its fields and the previous head.
// Field boundaries are delimited so adjacent fields cannot be confused.
func computeHash(e *Entry) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(e.Sequence)))
	h.Write([]byte{0})
	h.Write([]byte(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte{0})
	h.Write([]byte(e.Actor))
	h.Write([]byte{0})
	h.Write([]byte(e.Action))
	h.Write([]byte{0})
	h.Write([]byte(e.Detail))
	h.Write([]byte{0})
	h.Write([]byte(e.PrevHash))
	return hex.EncodeToString(h.Sum(nil))
}

// Chain is an in-memory append-only audit ledger. A single chain is shared
// by reference across the engine, gate, and dispatcher for one runtime.
// Safe for concurrent use; entry order is lock-acquisition order.
type Chain struct {
	mu      sync.Mutex
	entries []Entry
	head    string
}

// NewChain returns an empty chain anchored at the genesis hash.
func NewChain() *Chain {
	return &Chain{head: genesisHash}
}

// Append records one action and returns the new entry's hash.
func (c *Chain) Append(actor, action, detail string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{
		Sequence:  len(c.entries),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    action,
		Detail:    detail,
		PrevHash:  c.head,
	}
	entry.Hash = computeHash(&entry)

	c.entries = append(c.entries, entry)
	c.head = entry.Hash
	return entry.Hash
}

// HeadHash returns the hash of the most recent entry, or the genesis hash
// for an empty chain.
func (c *Chain) HeadHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// Len returns the number of recorded entries.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a copy of the recorded entries in append order.
func (c *Chain) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Verify replays the chain from genesis and reports the first entry whose
// linkage or hash does not reproduce.
func (c *Chain) Verify() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := genesisHash
	for i := range c.entries {
		e := &c.entries[i]
		if e.Sequence != i {
			return types.NewError(types.AUDIT_CHAIN_CORRUPT,
				fmt.Sprintf("entry %d has sequence %d", i, e.Sequence))
		}
		if e.PrevHash != prev {
			return types.NewError(types.AUDIT_CHAIN_CORRUPT,
				fmt.Sprintf("entry %d prev_hash does not match chain head", i))
		}
		if computeHash(e) != e.Hash {
			return types.NewError(types.AUDIT_CHAIN_CORRUPT,
				fmt.Sprintf("entry %d hash does not reproduce", i))
		}
		prev = e.Hash
	}

	if c.head != prev {
		return types.NewError(types.AUDIT_CHAIN_CORRUPT,
			"chain head does not match last entry hash")
	}
	return nil
}
