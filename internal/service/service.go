package service

import (
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// Service holds all business logic services.
type Service struct {
	Account  *AccountService
	Movement *MovementService
	Transfer *TransferService
}

// NewService creates a new Service over the backend the engine writes to.
func NewService(backend storage.Backend, engine *ledger.Engine) *Service {
	return &Service{
		Account:  NewAccountService(backend, engine),
		Movement: NewMovementService(backend, engine),
		Transfer: NewTransferService(backend, engine),
	}
}
