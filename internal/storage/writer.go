package storage

import (
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/fee"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

// Writer groups the stores bound to one open transaction. Every read made
// through a Writer sees the writes made earlier in the same transaction.
type Writer struct {
	Accounts  account.IAccountWriter
	Movements movement.IMovementWriter
	Transfers transfer.ITransferWriter
	Fees      fee.IFeeWriter
}

func NewWriter(tx bob.Executor) *Writer {
	return &Writer{
		Accounts:  account.NewWriter(tx),
		Movements: movement.NewWriter(tx),
		Transfers: transfer.NewWriter(tx),
		Fees:      fee.NewWriter(tx),
	}
}
