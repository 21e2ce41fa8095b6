package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/facturapro/facturapro/internal/sif/canonical"
	"github.com/facturapro/facturapro/internal/sif/digest"
	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func NewService(p Params) sifdomain.Service {
	return &Service{
		log: p.Log.Named("sif.service"),
	}
}

// Seal computes the integrity block for a new record:
// hash = SHA-256(canonical(payload) || previousHash).
func (s *Service) Seal(payload any, previousHash string, at time.Time) (sifdomain.Block, error) {
	if payload == nil {
		return sifdomain.Block{}, sifdomain.ErrNilPayload
	}
	if !digest.IsWellFormed(previousHash) {
		return sifdomain.Block{}, fmt.Errorf("%w: %q", sifdomain.ErrInvalidPreviousHash, previousHash)
	}

	encoded, err := canonical.Marshal(payload)
	if err != nil {
		return sifdomain.Block{}, err
	}

	hash, err := digest.Hex(append(encoded, previousHash...))
	if err != nil {
		return sifdomain.Block{}, err
	}

	return sifdomain.Block{
		Hash:         hash,
		PreviousHash: previousHash,
		Timestamp:    at.UTC(),
	}, nil
}

// Verify replays the whole chain in (date, number) order and reports the
// first record whose link or recomputed hash does not match.
func (s *Service) Verify(records []sifdomain.Record) (sifdomain.Report, error) {
	ordered := make([]sifdomain.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].Number < ordered[j].Number
	})

	previousHash := sifdomain.GenesisHash
	for i, record := range ordered {
		if record.Block.PreviousHash != previousHash {
			return s.failure(i, fmt.Sprintf("previous hash mismatch: stored %q, expected %q",
				record.Block.PreviousHash, previousHash)), nil
		}

		block, err := s.Seal(record.Payload, record.Block.PreviousHash, record.Block.Timestamp)
		if err != nil {
			return s.failure(i, fmt.Sprintf("payload not canonicalizable: %v", err)), nil
		}
		if block.Hash != record.Block.Hash {
			return s.failure(i, fmt.Sprintf("hash mismatch: stored %q, recomputed %q",
				record.Block.Hash, block.Hash)), nil
		}

		previousHash = record.Block.Hash
	}

	return sifdomain.Report{
		Valid:   true,
		Checked: len(ordered),
	}, nil
}

func (s *Service) failure(index int, reason string) sifdomain.Report {
	s.log.Warn("chain verification failed",
		zap.Int("index", index),
		zap.String("reason", reason),
	)
	return sifdomain.Report{
		Valid:             false,
		Checked:           index + 1,
		FirstFailureIndex: &index,
		Reason:            reason,
	}
}
