package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flower-casino-backend/internal/models"
	"flower-casino-backend/internal/monitoring"
)

// EpochStore persists commitment epochs. RedisService is the production
// implementation.
type EpochStore interface {
	// LoadCurrentEpoch returns the persisted current epoch, or an error if
	// none exists or the record is corrupt.
	LoadCurrentEpoch() (*models.Epoch, error)
	// SaveCurrentEpoch checkpoints the current epoch, including its nonce
	// counter.
	SaveCurrentEpoch(epoch *models.Epoch) error
	// SwapEpoch durably installs next as the current epoch and archives the
	// superseded prev (seed now revealed) in a single transaction. prev may
	// be nil on first start.
	SwapEpoch(next, prev *models.Epoch) error
}

// SeedManager owns the single authoritative commitment epoch and its nonce
// counter. Every roll request goes through one critical section that reads
// the epoch and takes its nonces as an indivisible step, so a rotation can
// never interleave between the two, and no nonce is ever issued twice within
// an epoch.
type SeedManager struct {
	mu          sync.Mutex
	store       EpochStore
	log         *zap.Logger
	interval    time.Duration
	current     *models.Epoch
	broadcaster Broadcaster
}

func NewSeedManager(store EpochStore, log *zap.Logger, interval time.Duration) (*SeedManager, error) {
	sm := &SeedManager{
		store:    store,
		log:      log,
		interval: interval,
	}

	epoch, err := store.LoadCurrentEpoch()
	if err == nil && epoch != nil && epoch.ServerSeed != "" &&
		VerifyCommitment(epoch.ServerSeed, epoch.ServerSeedHash) {
		sm.current = epoch
		return sm, nil
	}
	if err != nil {
		log.Warn("no usable persisted epoch, generating a fresh one", zap.Error(err))
	}

	// No rolls exist against a missing epoch, so failing open to a fresh
	// seed is safe.
	if _, err := sm.Rotate(); err != nil {
		return nil, fmt.Errorf("failed to create initial epoch: %v", err)
	}
	return sm, nil
}

// SetBroadcaster wires the push channel that announces reveals. Optional.
func (sm *SeedManager) SetBroadcaster(b Broadcaster) {
	sm.mu.Lock()
	sm.broadcaster = b
	sm.mu.Unlock()
}

// Commitment returns the public half of the active epoch. Never blocks
// beyond the shared mutex.
func (sm *SeedManager) Commitment() models.Commitment {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return models.Commitment{
		EpochID:        sm.current.ID,
		ServerSeedHash: sm.current.ServerSeedHash,
	}
}

// CurrentNonce returns the next nonce the active epoch will issue.
func (sm *SeedManager) CurrentNonce() int64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current.Nonce
}

// NextRolls atomically captures the active epoch and takes count consecutive
// nonces from it, then derives the rolls. The epoch read and the nonce take
// happen in one critical section; derivation runs outside it on the captured
// seed, so an in-flight batch keeps its pre-rotation seed and nonces even if
// a rotation lands mid-derivation.
func (sm *SeedManager) NextRolls(clientSeed string, count int) *models.RollBatch {
	if count < 1 {
		count = 1
	}

	sm.mu.Lock()
	epoch := sm.current
	serverSeed := epoch.ServerSeed
	batch := &models.RollBatch{
		EpochID:        epoch.ID,
		ServerSeedHash: epoch.ServerSeedHash,
		ClientSeed:     clientSeed,
		Nonces:         make([]int64, count),
	}
	for i := range batch.Nonces {
		batch.Nonces[i] = epoch.Nonce + int64(i)
	}
	epoch.Nonce += int64(count)

	// Checkpoint the counter so a restart resumes past the issued nonces.
	// The save stays inside the critical section: it must serialize with
	// Rotate's SwapEpoch, or a stale counter write could reinstall an
	// already-revealed epoch as durable current. Failure here can leave a
	// gap after recovery, never a repeat.
	checkpoint := *epoch
	saveErr := sm.store.SaveCurrentEpoch(&checkpoint)
	sm.mu.Unlock()

	if saveErr != nil {
		sm.log.Warn("nonce checkpoint failed", zap.String("epoch", checkpoint.ID), zap.Error(saveErr))
	}

	batch.Rolls = make([]float64, count)
	for i, nonce := range batch.Nonces {
		batch.Rolls[i] = Roll(serverSeed, clientSeed, nonce)
	}
	monitoring.RollsDerived.Add(float64(count))

	return batch
}

// Rotate generates a fresh epoch, persists it durably and archives the
// previous one with its seed revealed. If persistence fails the rotation is
// aborted and the previous epoch remains authoritative; the timer retries on
// the next tick.
func (sm *SeedManager) Rotate() (*models.Epoch, error) {
	seed, err := generateServerSeed()
	if err != nil {
		return nil, err
	}

	next := &models.Epoch{
		ID:             uuid.New().String(),
		ServerSeed:     seed,
		ServerSeedHash: HashServerSeed(seed),
		Nonce:          0,
		CreatedAt:      time.Now().Unix(),
	}

	sm.mu.Lock()
	prev := sm.current
	if prev != nil {
		prev.RevealedAt = time.Now().Unix()
	}
	if err := sm.store.SwapEpoch(next, prev); err != nil {
		if prev != nil {
			prev.RevealedAt = 0
		}
		sm.mu.Unlock()
		return nil, fmt.Errorf("failed to persist epoch: %v", err)
	}
	sm.current = next
	broadcaster := sm.broadcaster
	sm.mu.Unlock()

	monitoring.SeedRotations.Inc()
	if prev != nil {
		sm.log.Info("server seed rotated",
			zap.String("revealed_epoch", prev.ID),
			zap.String("new_epoch", next.ID),
			zap.String("new_hash", next.ServerSeedHash))
		if broadcaster != nil {
			broadcaster.BroadcastRotation(prev, models.Commitment{
				EpochID:        next.ID,
				ServerSeedHash: next.ServerSeedHash,
			})
		}
	}

	return next, nil
}

// Run rotates the seed on a fixed interval until ctx is cancelled.
func (sm *SeedManager) Run(ctx context.Context) {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sm.Rotate(); err != nil {
				monitoring.SeedRotationFailures.Inc()
				sm.log.Warn("seed rotation aborted, previous epoch remains current", zap.Error(err))
			}
		}
	}
}

// generateServerSeed draws 256 bits from crypto/rand, hex encoded.
func generateServerSeed() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate server seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}
