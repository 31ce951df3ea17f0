package services

import "flower-casino-backend/internal/models"

// Broadcaster pushes public fairness events and private balance updates to
// connected clients. The websocket hub implements it; the core only emits.
type Broadcaster interface {
	// BroadcastRotation announces a completed rotation: the revealed
	// previous epoch and the new public commitment.
	BroadcastRotation(revealed *models.Epoch, current models.Commitment)
	// BroadcastRoll publishes one roll-history record.
	BroadcastRoll(record *models.RollRecord)
	// BroadcastBalance notifies a single player of their new balance.
	BroadcastBalance(userID, balance int64)
}
