package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"flower-casino-backend/internal/models"
	"flower-casino-backend/internal/services"
)

// memoryEpochStore keeps epochs in memory and can be told to fail or stall,
// standing in for Redis in seed manager tests.
type memoryEpochStore struct {
	mu        sync.Mutex
	current   *models.Epoch
	archived  []*models.Epoch
	failSwap  bool
	saveDelay time.Duration
}

func (s *memoryEpochStore) LoadCurrentEpoch() (*models.Epoch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, errors.New("no epoch")
	}
	cp := *s.current
	return &cp, nil
}

func (s *memoryEpochStore) SaveCurrentEpoch(epoch *models.Epoch) error {
	s.mu.Lock()
	delay := s.saveDelay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *epoch
	s.current = &cp
	return nil
}

func (s *memoryEpochStore) SwapEpoch(next, prev *models.Epoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSwap {
		return errors.New("storage unavailable")
	}
	cp := *next
	s.current = &cp
	if prev != nil {
		pcp := *prev
		s.archived = append(s.archived, &pcp)
	}
	return nil
}

func newTestSeedManager(t *testing.T) (*services.SeedManager, *memoryEpochStore) {
	t.Helper()
	store := &memoryEpochStore{}
	sm, err := services.NewSeedManager(store, zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("Failed to create seed manager: %v", err)
	}
	return sm, store
}

func TestSeedManagerCommitment(t *testing.T) {
	sm, _ := newTestSeedManager(t)

	commitment := sm.Commitment()
	if commitment.EpochID == "" {
		t.Error("Commitment should carry an epoch ID")
	}
	if len(commitment.ServerSeedHash) != 64 {
		t.Errorf("Expected 64-char hash, got %d chars", len(commitment.ServerSeedHash))
	}
	if sm.CurrentNonce() != 0 {
		t.Errorf("Fresh epoch should start at nonce 0, got %d", sm.CurrentNonce())
	}
}

func TestNextRollsSequencesNonces(t *testing.T) {
	sm, _ := newTestSeedManager(t)

	first := sm.NextRolls("client-seed", 3)
	second := sm.NextRolls("client-seed", 2)

	wantFirst := []int64{0, 1, 2}
	for i, n := range first.Nonces {
		if n != wantFirst[i] {
			t.Errorf("First batch nonce %d: expected %d, got %d", i, wantFirst[i], n)
		}
	}
	wantSecond := []int64{3, 4}
	for i, n := range second.Nonces {
		if n != wantSecond[i] {
			t.Errorf("Second batch nonce %d: expected %d, got %d", i, wantSecond[i], n)
		}
	}
	if sm.CurrentNonce() != 5 {
		t.Errorf("Expected next nonce 5, got %d", sm.CurrentNonce())
	}

	if len(first.Rolls) != 3 || len(second.Rolls) != 2 {
		t.Fatal("Batch should carry one roll per nonce")
	}
	for _, r := range append(first.Rolls, second.Rolls...) {
		if r < 0.01 || r > 100.00 {
			t.Errorf("Roll out of range: %.2f", r)
		}
	}
}

func TestNextRollsConcurrentNoncesUnique(t *testing.T) {
	sm, _ := newTestSeedManager(t)

	const goroutines = 100
	const perBatch = 3

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]int)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := sm.NextRolls("client-seed", perBatch)
			mu.Lock()
			for _, n := range batch.Nonces {
				seen[n]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perBatch {
		t.Fatalf("Expected %d distinct nonces, got %d", goroutines*perBatch, len(seen))
	}
	for n := int64(0); n < goroutines*perBatch; n++ {
		if seen[n] != 1 {
			t.Errorf("Nonce %d issued %d times", n, seen[n])
		}
	}
	if sm.CurrentNonce() != goroutines*perBatch {
		t.Errorf("Expected next nonce %d, got %d", goroutines*perBatch, sm.CurrentNonce())
	}
}

func TestRotateRevealsPreviousEpoch(t *testing.T) {
	sm, store := newTestSeedManager(t)

	before := sm.Commitment()
	sm.NextRolls("client-seed", 5)

	next, err := sm.Rotate()
	if err != nil {
		t.Fatalf("Rotation failed: %v", err)
	}

	if next.ID == before.EpochID {
		t.Error("Rotation should install a new epoch")
	}
	if sm.CurrentNonce() != 0 {
		t.Errorf("Rotation should reset the nonce, got %d", sm.CurrentNonce())
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.archived) == 0 {
		t.Fatal("Rotation should archive the previous epoch")
	}
	revealed := store.archived[len(store.archived)-1]
	if revealed.ID != before.EpochID {
		t.Errorf("Archived epoch %s, expected %s", revealed.ID, before.EpochID)
	}
	if revealed.ServerSeed == "" {
		t.Error("Archived epoch must carry the revealed seed")
	}
	if revealed.RevealedAt == 0 {
		t.Error("Archived epoch must carry a reveal timestamp")
	}
	if !services.VerifyCommitment(revealed.ServerSeed, revealed.ServerSeedHash) {
		t.Error("Revealed seed must match its published commitment")
	}
	if revealed.Nonce != 5 {
		t.Errorf("Archived epoch should record 5 issued nonces, got %d", revealed.Nonce)
	}
}

func TestRotatePersistFailureKeepsEpoch(t *testing.T) {
	sm, store := newTestSeedManager(t)

	before := sm.Commitment()
	sm.NextRolls("client-seed", 2)

	store.mu.Lock()
	store.failSwap = true
	store.mu.Unlock()

	if _, err := sm.Rotate(); err == nil {
		t.Fatal("Rotation should fail when persistence fails")
	}

	after := sm.Commitment()
	if after.EpochID != before.EpochID {
		t.Error("Failed rotation must leave the previous epoch authoritative")
	}
	if sm.CurrentNonce() != 2 {
		t.Errorf("Failed rotation must not reset the nonce, got %d", sm.CurrentNonce())
	}

	// The epoch still issues rolls after the aborted rotation.
	batch := sm.NextRolls("client-seed", 1)
	if batch.Nonces[0] != 2 {
		t.Errorf("Expected nonce 2 after aborted rotation, got %d", batch.Nonces[0])
	}
}

func TestRotationDuringInFlightBatch(t *testing.T) {
	sm, _ := newTestSeedManager(t)

	before := sm.Commitment()
	batch := sm.NextRolls("client-seed", 4)

	if _, err := sm.Rotate(); err != nil {
		t.Fatalf("Rotation failed: %v", err)
	}

	// The batch keeps its pre-rotation identity.
	if batch.EpochID != before.EpochID {
		t.Errorf("Batch epoch %s, expected pre-rotation epoch %s", batch.EpochID, before.EpochID)
	}
	if batch.ServerSeedHash != before.ServerSeedHash {
		t.Error("Batch must keep the pre-rotation commitment")
	}

	fresh := sm.NextRolls("client-seed", 1)
	if fresh.EpochID == before.EpochID {
		t.Error("Post-rotation batch should use the new epoch")
	}
	if fresh.Nonces[0] != 0 {
		t.Errorf("New epoch should start at nonce 0, got %d", fresh.Nonces[0])
	}
}

func TestCheckpointCannotResurrectRevealedEpoch(t *testing.T) {
	sm, store := newTestSeedManager(t)

	// Stall the checkpoint write so a rotation has a window to land while a
	// roll's counter save is still in flight.
	store.mu.Lock()
	store.saveDelay = 50 * time.Millisecond
	store.mu.Unlock()

	done := make(chan struct{})
	go func() {
		sm.NextRolls("client-seed", 1)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	if _, err := sm.Rotate(); err != nil {
		t.Fatalf("Rotation failed: %v", err)
	}
	<-done

	current := sm.Commitment()

	store.mu.Lock()
	durable := *store.current
	revealed := make(map[string]bool)
	for _, e := range store.archived {
		revealed[e.ID] = true
	}
	store.mu.Unlock()

	if durable.ID != current.EpochID {
		t.Errorf("Durable current epoch %s does not match the active epoch %s",
			durable.ID, current.EpochID)
	}
	if revealed[durable.ID] {
		t.Error("Durable current epoch has an already-revealed seed")
	}

	// A restart must come up on the rotated epoch, never on one whose seed
	// is already public.
	resumed, err := services.NewSeedManager(store, zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("Failed to resume seed manager: %v", err)
	}
	if resumed.Commitment().EpochID != current.EpochID {
		t.Errorf("Restart resumed epoch %s, expected %s",
			resumed.Commitment().EpochID, current.EpochID)
	}
	if revealed[resumed.Commitment().EpochID] {
		t.Error("Restart resumed an epoch whose seed is already public")
	}
}

func TestSeedManagerResumesPersistedEpoch(t *testing.T) {
	sm, store := newTestSeedManager(t)
	sm.NextRolls("client-seed", 7)
	commitment := sm.Commitment()

	resumed, err := services.NewSeedManager(store, zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("Failed to resume seed manager: %v", err)
	}

	if resumed.Commitment().EpochID != commitment.EpochID {
		t.Error("Restart should resume the persisted epoch")
	}
	if resumed.CurrentNonce() != 7 {
		t.Errorf("Restart should resume past issued nonces, got %d", resumed.CurrentNonce())
	}
}
