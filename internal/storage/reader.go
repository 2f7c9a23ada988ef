package storage

import (
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/fee"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

// Reader groups the stores for reads outside of a unit of work.
type Reader struct {
	Accounts  account.IAccountReader
	Movements movement.IMovementReader
	Transfers transfer.ITransferReader
	Fees      fee.IFeeReader
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{
		Accounts:  account.NewReader(exec),
		Movements: movement.NewReader(exec),
		Transfers: transfer.NewReader(exec),
		Fees:      fee.NewReader(exec),
	}
}
