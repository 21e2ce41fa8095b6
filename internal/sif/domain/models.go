// Package domain defines the invoice integrity chain: each sealed record
// carries a hash computed over its canonical payload and the hash of the
// chronologically preceding record, so any retroactive edit or reordering
// of the register is detectable.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/facturapro/facturapro/internal/sif/digest"
)

// GenesisHash is the previous-hash value of the first record in the chain.
var GenesisHash = strings.Repeat("0", digest.Size)

// Block is the integrity block stored alongside each invoice.
type Block struct {
	Hash         string    `json:"hash"`
	PreviousHash string    `json:"previousHash"`
	Timestamp    time.Time `json:"timestamp"`
}

// Record is one chain element as presented for verification: the business
// payload (without the integrity block, which would be circular), the
// stored block, and the keys the chain is ordered by.
type Record struct {
	Payload any
	Block   Block
	Date    time.Time
	Number  int64
}

// Report is the outcome of a chain verification pass. FirstFailureIndex is
// the zero-based position (in chain order) of the first broken record; it
// is nil when the chain is valid, so a failure at index 0 still serializes.
type Report struct {
	Valid             bool   `json:"valid"`
	Checked           int    `json:"checked"`
	FirstFailureIndex *int   `json:"firstFailureIndex,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

var (
	// ErrInvalidPreviousHash reports a previous hash that is neither the
	// genesis constant nor a well-formed digest.
	ErrInvalidPreviousHash = errors.New("sif: invalid previous hash")

	// ErrNilPayload reports an attempt to seal a missing payload.
	ErrNilPayload = errors.New("sif: nil payload")

	// ErrChainIntegrity is surfaced to callers when a verification pass
	// finds a break. It is a compliance event, never retried or healed.
	ErrChainIntegrity = errors.New("sif: chain integrity violation")

	// ErrConcurrentAppend reports two appends racing for the same chain
	// tail. Safe to retry against the re-read tail.
	ErrConcurrentAppend = errors.New("sif: concurrent append conflict")
)

// Service seals new records against the chain tail and verifies the full
// chain. Both operations are pure: sealing mutates nothing, verification
// reads nothing beyond its input.
type Service interface {
	Seal(payload any, previousHash string, at time.Time) (Block, error)
	Verify(records []Record) (Report, error)
}
