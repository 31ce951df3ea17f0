package models

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be a positive number of tokens")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownGame       = errors.New("unknown game type")
	ErrInvalidCall       = errors.New("call not allowed for this game")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameFinished      = errors.New("game already finished")
	ErrNotYourGame       = errors.New("game belongs to another player")
)
