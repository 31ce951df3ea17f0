package services

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"flower-casino-backend/internal/models"
	"flower-casino-backend/internal/monitoring"
)

// GameEngine runs wagers end to end: charge, roll, classify, pay out. The
// debit fails closed before any roll is taken, and the payout credit is the
// last step.
type GameEngine struct {
	redis       *RedisService
	ledger      *Ledger
	seeds       *SeedManager
	log         *zap.Logger
	broadcaster Broadcaster

	maxBet      int64
	idleTimeout time.Duration

	mu          sync.Mutex
	activeGames map[string]*blackjackGame
}

type blackjackGame struct {
	mu          sync.Mutex
	session     *models.GameSession
	playerCents int64
	lastMove    time.Time
	idleTimer   *time.Timer
	resolved    bool
}

func NewGameEngine(redisService *RedisService, ledger *Ledger, seeds *SeedManager, log *zap.Logger, maxBet int64, idleTimeout time.Duration) *GameEngine {
	return &GameEngine{
		redis:       redisService,
		ledger:      ledger,
		seeds:       seeds,
		log:         log,
		maxBet:      maxBet,
		idleTimeout: idleTimeout,
		activeGames: make(map[string]*blackjackGame),
	}
}

func (ge *GameEngine) SetBroadcaster(b Broadcaster) {
	ge.broadcaster = b
}

// Play resolves a one-shot wager. Blackjack is interactive and goes through
// StartBlackjack/Hit/Stand instead.
func (ge *GameEngine) Play(userID int64, req *models.PlayRequest) (*models.GameResult, error) {
	if err := req.Validate(ge.maxBet); err != nil {
		return nil, err
	}

	cfg := models.Games[req.GameType]
	if cfg.Interactive {
		return nil, fmt.Errorf("%s is interactive, use its own endpoints", cfg.Name)
	}

	session, err := ge.openSession(userID, req.GameType, req.Amount, req.Call, cfg.Name)
	if err != nil {
		return nil, err
	}

	var flowers, houseFlowers []Flower

	if cfg.Versus {
		flowers, houseFlowers = ge.playVersus(session, cfg)
	} else {
		switch req.GameType {
		case models.GameTypeDice54:
			ge.playDice54(session, cfg)
		case models.GameTypeOverUnder:
			ge.playOverUnder(session, cfg)
		case models.GameTypeHotCold:
			flowers = ge.playHotCold(session, cfg)
		}
	}

	return ge.settle(session, flowers, houseFlowers)
}

// openSession validates funding and opens the wager: the debit is applied
// before any roll exists, and a failed debit means nothing happened.
func (ge *GameEngine) openSession(userID int64, gameType models.GameType, amount int64, call, name string) (*models.GameSession, error) {
	wallet, err := ge.redis.GetWallet(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %v", err)
	}

	now := time.Now()
	session := &models.GameSession{
		ID:         models.GenerateGameID(),
		UserID:     userID,
		GameType:   gameType,
		BetAmount:  amount,
		Call:       call,
		ClientSeed: wallet.ClientSeed,
		Status:     "active",
		Multiplier: 1.0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := ge.ledger.Debit(userID, amount, session.ID,
		fmt.Sprintf("Placed %d tokens on %s", amount, name)); err != nil {
		return nil, err
	}

	monitoring.BetsPlaced.WithLabelValues(string(gameType)).Inc()
	return session, nil
}

// draw takes count sequenced rolls for the session and appends them to the
// public history. house routes the rolls to the house side of a versus game;
// both sides consume nonces from the same epoch sequence against the
// player's client seed.
func (ge *GameEngine) draw(session *models.GameSession, count int, house bool) *models.RollBatch {
	batch := ge.seeds.NextRolls(session.ClientSeed, count)
	session.EpochID = batch.EpochID
	session.ServerSeedHash = batch.ServerSeedHash

	if house {
		session.HouseRolls = append(session.HouseRolls, batch.Rolls...)
		session.HouseNonces = append(session.HouseNonces, batch.Nonces...)
	} else {
		session.Rolls = append(session.Rolls, batch.Rolls...)
		session.Nonces = append(session.Nonces, batch.Nonces...)
	}

	records := make([]*models.RollRecord, count)
	now := time.Now().Unix()
	for i := range batch.Rolls {
		records[i] = &models.RollRecord{
			UserID:         session.UserID,
			EpochID:        batch.EpochID,
			ServerSeedHash: batch.ServerSeedHash,
			ClientSeed:     batch.ClientSeed,
			Nonce:          batch.Nonces[i],
			Roll:           batch.Rolls[i],
			GameID:         session.ID,
			CreatedAt:      now,
		}
	}
	if err := ge.redis.AppendRollRecords(records...); err != nil {
		ge.log.Warn("failed to append roll history", zap.String("game", session.ID), zap.Error(err))
	}
	if ge.broadcaster != nil {
		for _, rec := range records {
			ge.broadcaster.BroadcastRoll(rec)
		}
	}

	return batch
}

func (ge *GameEngine) playDice54(session *models.GameSession, cfg models.GameConfig) {
	batch := ge.draw(session, cfg.RollsPerTurn, false)
	roll := batch.Rolls[0]

	win := roll >= 54
	session.Outcome = fmt.Sprintf("rolled %.2f", roll)
	ge.score(session, cfg, "", win)
}

func (ge *GameEngine) playOverUnder(session *models.GameSession, cfg models.GameConfig) {
	batch := ge.draw(session, cfg.RollsPerTurn, false)
	sum := dieSum(batch.Rolls)

	win := (sum > 7 && session.Call == "over") ||
		(sum < 7 && session.Call == "under") ||
		(sum == 7 && session.Call == "7")
	session.Outcome = fmt.Sprintf("rolled a %d", sum)
	ge.score(session, cfg, session.Call, win)
}

func (ge *GameEngine) playHotCold(session *models.GameSession, cfg models.GameConfig) []Flower {
	batch := ge.draw(session, cfg.RollsPerTurn, false)
	flower := ClassifyFlower(batch.Rolls[0])

	win := session.Call == string(flower) || session.Call == flower.Temperature()
	session.Outcome = fmt.Sprintf("rolled %.2f (%s)", batch.Rolls[0], flower)
	multiplierCall := ""
	if session.Call == string(flower) {
		multiplierCall = session.Call
	}
	ge.score(session, cfg, multiplierCall, win)

	return []Flower{flower}
}

// playVersus rolls both sides of a versus game and replays ties with fresh
// nonces. Out-of-six variants compare die sums; the rest compare ranked
// flower hands.
func (ge *GameEngine) playVersus(session *models.GameSession, cfg models.GameConfig) ([]Flower, []Flower) {
	for {
		session.Rounds++

		playerBatch := ge.draw(session, cfg.RollsPerTurn, false)
		houseBatch := ge.draw(session, cfg.RollsPerTurn, true)

		if cfg.OutOfSix {
			playerSum := dieSum(playerBatch.Rolls)
			houseSum := dieSum(houseBatch.Rolls)
			if playerSum == houseSum {
				continue
			}

			win := playerSum > houseSum
			session.Outcome = fmt.Sprintf("rolled a %d against the house's %d", playerSum, houseSum)
			ge.score(session, cfg, "", win)
			return nil, nil
		}

		playerHand := ClassifyRolls(playerBatch.Rolls)
		houseHand := ClassifyRolls(houseBatch.Rolls)
		playerRank := RankFlowerHand(playerHand)
		houseRank := RankFlowerHand(houseHand)
		if playerRank == houseRank {
			continue
		}

		win := playerRank > houseRank
		session.Outcome = fmt.Sprintf("%s vs %s", playerRank, houseRank)
		ge.score(session, cfg, "", win)
		return playerHand, houseHand
	}
}

// score finalizes win/lose state and the payout amount on the session.
func (ge *GameEngine) score(session *models.GameSession, cfg models.GameConfig, call string, win bool) {
	if win {
		session.Status = "won"
		session.Multiplier = cfg.Multiplier(call)
		session.Payout = payout(session.BetAmount, session.Multiplier)
	} else {
		session.Status = "lost"
		session.Multiplier = 0
		session.Payout = 0
	}
}

// settle credits any payout, archives the session and builds the result. A
// credit failure after the already-applied debit is escalated for manual
// reconciliation, never swallowed or silently retried.
func (ge *GameEngine) settle(session *models.GameSession, flowers, houseFlowers []Flower) (*models.GameResult, error) {
	now := time.Now()
	session.UpdatedAt = now
	session.EndedAt = now

	var newBalance int64
	if session.Payout > 0 {
		balance, err := ge.ledger.Credit(session.UserID, session.Payout, true, session.ID,
			fmt.Sprintf("Won %d tokens on %s (%.2fx)", session.Payout, models.Games[session.GameType].Name, session.Multiplier))
		if err != nil {
			ge.ledger.EscalateFailedCredit(session.UserID, session.Payout, session.ID, err)
			return nil, fmt.Errorf("payout could not be applied: %v", err)
		}
		newBalance = balance
	} else {
		balance, err := ge.ledger.Balance(session.UserID)
		if err != nil {
			return nil, err
		}
		newBalance = balance
	}

	if err := ge.redis.CompleteGameSession(session); err != nil {
		ge.log.Warn("failed to archive game session", zap.String("game", session.ID), zap.Error(err))
	}
	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastBalance(session.UserID, newBalance)
	}

	result := &models.GameResult{
		GameID:         session.ID,
		GameType:       session.GameType,
		BetAmount:      session.BetAmount,
		Call:           session.Call,
		Rolls:          session.Rolls,
		Nonces:         session.Nonces,
		HouseRolls:     session.HouseRolls,
		HouseNonces:    session.HouseNonces,
		Flowers:        flowerNames(flowers),
		HouseFlowers:   flowerNames(houseFlowers),
		Outcome:        session.Outcome,
		Win:            session.Status == "won",
		Multiplier:     session.Multiplier,
		Payout:         session.Payout,
		NewBalance:     newBalance,
		EpochID:        session.EpochID,
		ServerSeedHash: session.ServerSeedHash,
		ClientSeed:     session.ClientSeed,
	}
	return result, nil
}

// StartBlackjack opens an interactive blackjack session: the stake is
// charged, the first roll is taken and the player is on the clock. If no
// move arrives within the idle timeout the session auto-stands.
func (ge *GameEngine) StartBlackjack(userID, amount int64) (*models.GameSession, error) {
	req := &models.PlayRequest{GameType: models.GameTypeBlackjack, Amount: amount}
	if err := req.Validate(ge.maxBet); err != nil {
		return nil, err
	}

	cfg := models.Games[models.GameTypeBlackjack]
	session, err := ge.openSession(userID, models.GameTypeBlackjack, amount, "", cfg.Name)
	if err != nil {
		return nil, err
	}

	batch := ge.draw(session, 1, false)

	game := &blackjackGame{
		session:     session,
		playerCents: cents(batch.Rolls[0]),
		lastMove:    time.Now(),
	}
	game.idleTimer = time.AfterFunc(ge.idleTimeout, func() {
		ge.autoStand(session.ID)
	})

	ge.mu.Lock()
	ge.activeGames[session.ID] = game
	ge.mu.Unlock()

	if err := ge.redis.SaveGameSession(session); err != nil {
		ge.log.Warn("failed to save blackjack session", zap.String("game", session.ID), zap.Error(err))
	}

	return session, nil
}

// Hit draws one more roll. Going over 100 busts and resolves immediately; a
// total already sitting on 100 stands instead of drawing.
func (ge *GameEngine) Hit(userID int64, gameID string) (*models.GameSession, *models.GameResult, error) {
	game, err := ge.lookupBlackjack(userID, gameID)
	if err != nil {
		return nil, nil, err
	}

	game.mu.Lock()
	if game.resolved {
		game.mu.Unlock()
		return nil, nil, models.ErrGameFinished
	}

	// A full total of 100 cannot draw again; the session plays out as a
	// stand.
	if game.playerCents >= 10000 {
		game.resolved = true
		game.idleTimer.Stop()
		game.mu.Unlock()

		ge.removeBlackjack(gameID)
		result, err := ge.resolveStand(game)
		return game.session, result, err
	}

	batch := ge.draw(game.session, 1, false)
	game.playerCents += cents(batch.Rolls[0])
	game.lastMove = time.Now()
	game.session.UpdatedAt = game.lastMove

	if game.playerCents > 10000 {
		game.resolved = true
		game.idleTimer.Stop()
		game.mu.Unlock()

		ge.removeBlackjack(gameID)
		result, err := ge.resolveBust(game)
		return game.session, result, err
	}

	game.idleTimer.Reset(ge.idleTimeout)
	session := game.session
	game.mu.Unlock()

	if err := ge.redis.SaveGameSession(session); err != nil {
		ge.log.Warn("failed to save blackjack session", zap.String("game", gameID), zap.Error(err))
	}

	return session, nil, nil
}

// Stand ends the player's turn: the house draws until it beats the player's
// total or busts past 100.
func (ge *GameEngine) Stand(userID int64, gameID string) (*models.GameResult, error) {
	game, err := ge.lookupBlackjack(userID, gameID)
	if err != nil {
		return nil, err
	}

	game.mu.Lock()
	if game.resolved {
		game.mu.Unlock()
		return nil, models.ErrGameFinished
	}
	game.resolved = true
	game.idleTimer.Stop()
	game.mu.Unlock()

	ge.removeBlackjack(gameID)
	return ge.resolveStand(game)
}

func (ge *GameEngine) resolveBust(game *blackjackGame) (*models.GameResult, error) {
	session := game.session
	cfg := models.Games[models.GameTypeBlackjack]
	session.Outcome = fmt.Sprintf("busted with %.2f", float64(game.playerCents)/100)
	ge.score(session, cfg, "", false)
	return ge.settle(session, nil, nil)
}

func (ge *GameEngine) resolveStand(game *blackjackGame) (*models.GameResult, error) {
	session := game.session
	cfg := models.Games[models.GameTypeBlackjack]

	houseCents := int64(0)
	for houseCents < game.playerCents && houseCents < 10000 {
		batch := ge.draw(session, 1, true)
		houseCents += cents(batch.Rolls[0])
	}

	win := houseCents < game.playerCents || houseCents > 10000
	session.Outcome = fmt.Sprintf("stood on %.2f against the house's %.2f",
		float64(game.playerCents)/100, float64(houseCents)/100)
	ge.score(session, cfg, "", win)
	return ge.settle(session, nil, nil)
}

// autoStand is the idle-timeout default branch: a session the player walked
// away from resolves as if they stood. The original debit stands; a timeout
// is a normal way for a game to end, not an error.
func (ge *GameEngine) autoStand(gameID string) {
	ge.mu.Lock()
	game, exists := ge.activeGames[gameID]
	ge.mu.Unlock()
	if !exists {
		return
	}

	game.mu.Lock()
	if game.resolved {
		game.mu.Unlock()
		return
	}
	game.resolved = true
	game.mu.Unlock()

	ge.removeBlackjack(gameID)

	ge.log.Info("blackjack session idled out, auto-standing",
		zap.String("game", gameID), zap.Int64("user", game.session.UserID))
	if _, err := ge.resolveStand(game); err != nil {
		ge.log.Error("failed to auto-resolve idle blackjack session",
			zap.String("game", gameID), zap.Error(err))
	}
}

// CleanupStaleGames auto-resolves sessions whose idle timer somehow never
// fired (e.g. timers lost across a reload). Run from a janitor ticker.
func (ge *GameEngine) CleanupStaleGames(maxAge time.Duration) {
	ge.mu.Lock()
	var stale []string
	for id, game := range ge.activeGames {
		game.mu.Lock()
		if time.Since(game.lastMove) > maxAge {
			stale = append(stale, id)
		}
		game.mu.Unlock()
	}
	ge.mu.Unlock()

	for _, id := range stale {
		ge.autoStand(id)
	}
}

func (ge *GameEngine) lookupBlackjack(userID int64, gameID string) (*blackjackGame, error) {
	ge.mu.Lock()
	game, exists := ge.activeGames[gameID]
	ge.mu.Unlock()

	if !exists {
		session, err := ge.redis.GetGameSession(gameID)
		if err != nil {
			return nil, models.ErrGameNotFound
		}
		if session.UserID != userID {
			return nil, models.ErrNotYourGame
		}
		return nil, models.ErrGameFinished
	}
	if game.session.UserID != userID {
		return nil, models.ErrNotYourGame
	}
	return game, nil
}

func (ge *GameEngine) removeBlackjack(gameID string) {
	ge.mu.Lock()
	delete(ge.activeGames, gameID)
	ge.mu.Unlock()
}

// dieSum converts raw rolls to die faces and sums them.
func dieSum(rolls []float64) int {
	sum := 0
	for _, r := range rolls {
		sum += DieFace(r)
	}
	return sum
}

// cents avoids float drift in blackjack totals.
func cents(roll float64) int64 {
	return int64(math.Round(roll * 100))
}

func payout(amount int64, multiplier float64) int64 {
	return int64(math.Round(float64(amount) * multiplier))
}

func flowerNames(flowers []Flower) []string {
	if len(flowers) == 0 {
		return nil
	}
	names := make([]string, len(flowers))
	for i, f := range flowers {
		names[i] = string(f)
	}
	return names
}
