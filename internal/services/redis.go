package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"flower-casino-backend/internal/config"
	"flower-casino-backend/internal/models"
)

type RedisService struct {
	client          *redis.Client
	ctx             context.Context
	startingBalance int64
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client:          client,
		ctx:             ctx,
		startingBalance: cfg.StartingBalance,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// GetWallet loads a player's wallet, creating it with the starting balance
// and a fresh client seed on first sight.
func (s *RedisService) GetWallet(userID int64) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		clientSeed, err := models.GenerateClientSeed()
		if err != nil {
			return nil, err
		}

		now := time.Now().Unix()
		wallet := &models.Wallet{
			UserID:     userID,
			Balance:    s.startingBalance,
			ClientSeed: clientSeed,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := s.SaveWallet(wallet); err != nil {
			return nil, fmt.Errorf("failed to create wallet: %v", err)
		}
		return wallet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %v", err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(data), &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %v", err)
	}

	return &wallet, nil
}

func (s *RedisService) SaveWallet(wallet *models.Wallet) error {
	key := fmt.Sprintf(KeyWallet, wallet.UserID)

	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

// SetClientSeed replaces the player-owned seed. Balance fields are not
// touched here; those belong to the ledger scripts.
func (s *RedisService) SetClientSeed(userID int64, seed string) (*models.Wallet, error) {
	wallet, err := s.GetWallet(userID)
	if err != nil {
		return nil, err
	}

	wallet.ClientSeed = seed
	wallet.UpdatedAt = time.Now().Unix()
	if err := s.SaveWallet(wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *RedisService) DeleteWallet(userID int64) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyWallet, userID)).Err()
}

// LoadCurrentEpoch implements EpochStore.
func (s *RedisService) LoadCurrentEpoch() (*models.Epoch, error) {
	data, err := s.client.Get(s.ctx, KeyEpochCurrent).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("no persisted epoch")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load epoch: %v", err)
	}

	var epoch models.Epoch
	if err := json.Unmarshal([]byte(data), &epoch); err != nil {
		return nil, fmt.Errorf("corrupt epoch record: %v", err)
	}

	return &epoch, nil
}

// SaveCurrentEpoch implements EpochStore.
func (s *RedisService) SaveCurrentEpoch(epoch *models.Epoch) error {
	data, err := json.Marshal(epoch)
	if err != nil {
		return fmt.Errorf("failed to marshal epoch: %v", err)
	}

	return s.client.Set(s.ctx, KeyEpochCurrent, data, 0).Err()
}

// SwapEpoch implements EpochStore: installs next as current and archives the
// revealed prev in one MULTI/EXEC transaction, so a crash can't leave the
// commitment chain half written.
func (s *RedisService) SwapEpoch(next, prev *models.Epoch) error {
	nextData, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal epoch: %v", err)
	}

	tx := s.client.TxPipeline()
	tx.Set(s.ctx, KeyEpochCurrent, nextData, 0)

	if prev != nil {
		prevData, err := json.Marshal(prev)
		if err != nil {
			return fmt.Errorf("failed to marshal epoch: %v", err)
		}
		tx.Set(s.ctx, fmt.Sprintf(KeyEpoch, prev.ID), prevData, 0)
		tx.ZAdd(s.ctx, KeyEpochIndex, redis.Z{
			Score:  float64(prev.CreatedAt),
			Member: prev.ID,
		})
	}

	if _, err := tx.Exec(s.ctx); err != nil {
		return fmt.Errorf("failed to persist epoch: %v", err)
	}
	return nil
}

func (s *RedisService) GetEpoch(epochID string) (*models.Epoch, error) {
	data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyEpoch, epochID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("epoch not found: %s", epochID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch: %v", err)
	}

	var epoch models.Epoch
	if err := json.Unmarshal([]byte(data), &epoch); err != nil {
		return nil, fmt.Errorf("corrupt epoch record: %v", err)
	}

	return &epoch, nil
}

// ListRevealedEpochs returns archived epochs, newest first.
func (s *RedisService) ListRevealedEpochs(limit int64) ([]*models.Epoch, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	ids, err := s.client.ZRevRange(s.ctx, KeyEpochIndex, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list epochs: %v", err)
	}

	var epochs []*models.Epoch
	for _, id := range ids {
		epoch, err := s.GetEpoch(id)
		if err != nil {
			continue
		}
		epochs = append(epochs, epoch)
	}

	return epochs, nil
}

// AppendRollRecords appends to the per-epoch roll history. The list is
// append-only and untrimmed so every recorded roll stays replayable after
// the epoch's seed is revealed.
func (s *RedisService) AppendRollRecords(records ...*models.RollRecord) error {
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal roll record: %v", err)
		}

		key := fmt.Sprintf(KeyEpochRolls, rec.EpochID)
		if err := s.client.RPush(s.ctx, key, data).Err(); err != nil {
			return fmt.Errorf("failed to append roll record: %v", err)
		}
	}
	return nil
}

func (s *RedisService) GetEpochRolls(epochID string, limit int64) ([]*models.RollRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	key := fmt.Sprintf(KeyEpochRolls, epochID)
	entries, err := s.client.LRange(s.ctx, key, -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get roll history: %v", err)
	}

	var records []*models.RollRecord
	for _, entry := range entries {
		var rec models.RollRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}

	return records, nil
}

func (s *RedisService) SaveGameSession(session *models.GameSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal game session: %v", err)
	}

	key := fmt.Sprintf(KeyGameSession, session.ID)
	return s.client.Set(s.ctx, key, data, TTLGameSession).Err()
}

func (s *RedisService) GetGameSession(gameID string) (*models.GameSession, error) {
	data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyGameSession, gameID)).Result()
	if err == redis.Nil {
		return nil, models.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game session: %v", err)
	}

	var session models.GameSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game session: %v", err)
	}

	return &session, nil
}

func (s *RedisService) CompleteGameSession(session *models.GameSession) error {
	if err := s.SaveGameSession(session); err != nil {
		return err
	}

	completedKey := fmt.Sprintf(KeyUserCompletedGames, session.UserID)
	if err := s.client.ZAdd(s.ctx, completedKey, redis.Z{
		Score:  float64(session.EndedAt.Unix()),
		Member: session.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to completed games: %v", err)
	}

	// Keep only the last 100 per player; the roll history holds the full trail.
	s.client.ZRemRangeByRank(s.ctx, completedKey, 0, -101)

	return nil
}

func (s *RedisService) GetGameHistory(userID int64, limit int64) ([]*models.GameSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	completedKey := fmt.Sprintf(KeyUserCompletedGames, userID)
	gameIDs, err := s.client.ZRevRange(s.ctx, completedKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game IDs: %v", err)
	}

	var games []*models.GameSession
	for _, gameID := range gameIDs {
		game, err := s.GetGameSession(gameID)
		if err != nil {
			continue
		}
		games = append(games, game)
	}

	return games, nil
}

func (s *RedisService) DeleteGameSession(gameID string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyGameSession, gameID)).Err()
}

func (s *RedisService) SaveTransaction(tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	txKey := fmt.Sprintf(KeyTransaction, tx.ID)
	if err := s.client.Set(s.ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, tx.UserID)
	if err := s.client.ZAdd(s.ctx, userTxKey, redis.Z{
		Score:  float64(tx.CreatedAt.Unix()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to user transactions: %v", err)
	}

	// Keep only last 100 transactions
	s.client.ZRemRangeByRank(s.ctx, userTxKey, 0, -101)

	return nil
}

func (s *RedisService) GetUserTransactions(userID int64, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, userID)
	txIDs, err := s.client.ZRevRange(s.ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyTransaction, txID)).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

// PushReconciliation queues a failed credit for manual review. Never
// trimmed; draining it is an operator action.
func (s *RedisService) PushReconciliation(entry interface{}) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal reconciliation entry: %v", err)
	}
	return s.client.RPush(s.ctx, KeyReconcileQueue, data).Err()
}

func (s *RedisService) CheckRateLimit(userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(userID int64, action string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyRateLimit, userID, action)).Err()
}
