package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"flower-casino-backend/internal/models"
	"flower-casino-backend/internal/monitoring"
)

// Ledger mutates wallet balances through Lua scripts so the balance check
// and the write are one atomic step on the storage side. Two concurrent
// debits can therefore never both pass a stale balance check; the
// non-negativity invariant holds under race without any Go-side locking.
type Ledger struct {
	redis *RedisService
	log   *zap.Logger
}

func NewLedger(redisService *RedisService, log *zap.Logger) *Ledger {
	return &Ledger{
		redis: redisService,
		log:   log,
	}
}

var debitScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)

	if wallet.balance < amount then
		return redis.error_reply("insufficient funds")
	end

	wallet.balance = wallet.balance - amount
	if wallet.balance < 0 then
		-- storage-layer constraint; unreachable while the check above holds
		return redis.error_reply("balance constraint violated")
	end
	wallet.total_wagered = wallet.total_wagered + amount
	wallet.updated_at = now

	redis.call("SET", key, cjson.encode(wallet))
	return wallet.balance
`)

var creditScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])
	local win = ARGV[2] == "1"
	local now = tonumber(ARGV[3])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)

	wallet.balance = wallet.balance + amount
	if win then
		wallet.total_won = wallet.total_won + amount
	end
	wallet.updated_at = now

	redis.call("SET", key, cjson.encode(wallet))
	return wallet.balance
`)

// Debit atomically checks balance >= amount and decrements. On
// insufficient funds nothing is applied and ErrInsufficientFunds is
// returned. Returns the balance after the debit.
func (l *Ledger) Debit(userID, amount int64, gameID, description string) (int64, error) {
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}

	// Create-on-first-read so the script always finds a wallet.
	if _, err := l.redis.GetWallet(userID); err != nil {
		return 0, err
	}

	key := fmt.Sprintf(KeyWallet, userID)
	balance, err := debitScript.Run(
		l.redis.ctx, l.redis.client,
		[]string{key},
		amount, time.Now().Unix(),
	).Int64()
	if err != nil {
		if strings.Contains(err.Error(), "insufficient funds") {
			return 0, models.ErrInsufficientFunds
		}
		return 0, fmt.Errorf("debit failed: %v", err)
	}

	l.recordTransaction(userID, models.TransactionTypeBet, -amount, balance, gameID, description)
	return balance, nil
}

// Credit atomically increments the balance. Valid positive amounts always
// succeed unless storage itself fails; callers holding a prior debit must
// escalate such a failure via EscalateFailedCredit.
func (l *Ledger) Credit(userID, amount int64, win bool, gameID, description string) (int64, error) {
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}

	if _, err := l.redis.GetWallet(userID); err != nil {
		return 0, err
	}

	winFlag := "0"
	if win {
		winFlag = "1"
	}

	key := fmt.Sprintf(KeyWallet, userID)
	balance, err := creditScript.Run(
		l.redis.ctx, l.redis.client,
		[]string{key},
		amount, winFlag, time.Now().Unix(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("credit failed: %v", err)
	}

	txType := models.TransactionTypeAdjust
	if win {
		txType = models.TransactionTypeWin
	}
	l.recordTransaction(userID, txType, amount, balance, gameID, description)
	return balance, nil
}

func (l *Ledger) Balance(userID int64) (int64, error) {
	wallet, err := l.redis.GetWallet(userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// EscalateFailedCredit is the fatal path for a credit that failed after its
// wager's debit was already applied: the one state where tokens can leave
// circulation. The entry is queued for manual reconciliation and logged at
// error level; it is never retried silently.
func (l *Ledger) EscalateFailedCredit(userID, amount int64, gameID string, cause error) {
	monitoring.LedgerReconciliations.Inc()

	entry := map[string]interface{}{
		"user_id": userID,
		"amount":  amount,
		"game_id": gameID,
		"error":   cause.Error(),
		"at":      time.Now().Unix(),
	}
	if err := l.redis.PushReconciliation(entry); err != nil {
		l.log.Error("failed to queue reconciliation entry", zap.Error(err))
	}

	l.log.Error("MANUAL RECONCILIATION REQUIRED: credit failed after applied debit",
		zap.Int64("user_id", userID),
		zap.Int64("amount", amount),
		zap.String("game_id", gameID),
		zap.Error(cause))
}

func (l *Ledger) recordTransaction(userID int64, txType models.TransactionType, amount, balanceAfter int64, gameID, description string) {
	tx := &models.Transaction{
		ID:            models.GenerateTransactionID(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceAfter - amount,
		BalanceAfter:  balanceAfter,
		GameID:        gameID,
		Description:   description,
		CreatedAt:     time.Now(),
	}

	// Trail write is best effort; the balance itself is already durable.
	if err := l.redis.SaveTransaction(tx); err != nil {
		l.log.Warn("failed to record transaction", zap.String("tx", tx.ID), zap.Error(err))
	}
}
