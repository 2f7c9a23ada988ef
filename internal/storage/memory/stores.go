package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/dberr"
	"github.com/carson-networks/ledger-server/internal/storage/fee"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

// -- accounts --

var _ account.IAccountWriter = (*accountStore)(nil)

type accountStore struct {
	src source
}

func (a *accountStore) FindByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	var out *account.Account
	err := a.src.view(func(s *state) error {
		if row, ok := s.accounts[id]; ok {
			cp := *row
			out = &cp
		}
		return nil
	})
	return out, err
}

// FindByIDForUpdate needs no lock of its own; the session already excludes
// every other writer.
func (a *accountStore) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return a.FindByID(ctx, id)
}

func (a *accountStore) FindByNumber(ctx context.Context, number int64) (*account.Account, error) {
	var id uuid.UUID
	var found bool
	err := a.src.view(func(s *state) error {
		id, found = s.accountsByNumber[number]
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return a.FindByID(ctx, id)
}

func (a *accountStore) List(_ context.Context, filter *account.AccountFilter) (*account.AccountListResult, error) {
	limit, offset := account.NormalizeFilter(filter)

	var rows []*account.Account
	err := a.src.view(func(s *state) error {
		all := make([]*account.Account, 0, len(s.accounts))
		for _, row := range s.accounts {
			cp := *row
			all = append(all, &cp)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Number < all[j].Number })
		rows = windowPlusOne(all, limit, offset)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account.Page(rows, limit, offset), nil
}

func (a *accountStore) Create(_ context.Context, create *account.AccountCreate) (*account.Account, error) {
	row := &account.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         create.Name,
		PasswordHash: create.PasswordHash,
		Salt:         create.Salt,
		Active:       true,
		CreatedAt:    now(),
	}
	err := a.src.mutate(func(s *state) error {
		row.Number = s.nextNumber
		s.nextNumber++
		s.accounts[row.ID] = row
		s.accountsByNumber[row.Number] = row.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	cp := *row
	return &cp, nil
}

func (a *accountStore) UpdateStatus(_ context.Context, id uuid.UUID, active bool) (bool, error) {
	var updated bool
	err := a.src.mutate(func(s *state) error {
		row, ok := s.accounts[id]
		if !ok {
			return nil
		}
		cp := *row
		cp.Active = active
		s.accounts[id] = &cp
		updated = true
		return nil
	})
	return updated, err
}

// -- movements --

var _ movement.IMovementWriter = (*movementStore)(nil)

type movementStore struct {
	src source
}

func (m *movementStore) FindByIdempotencyKey(_ context.Context, accountID uuid.UUID, key string) (*movement.Movement, error) {
	var out *movement.Movement
	err := m.src.view(func(s *state) error {
		if row, ok := s.movementByKey[ownerKey{accountID, key}]; ok {
			cp := *row
			out = &cp
		}
		return nil
	})
	return out, err
}

func (m *movementStore) ListByTransfer(_ context.Context, transferID uuid.UUID) ([]*movement.Movement, error) {
	var out []*movement.Movement
	err := m.src.view(func(s *state) error {
		for _, row := range s.movements {
			if row.TransferID.Valid && row.TransferID.UUID == transferID {
				cp := *row
				out = append(out, &cp)
			}
		}
		return nil
	})
	// debit leg first, matching the postgres ordering
	sort.SliceStable(out, func(i, j int) bool { return out[i].Direction > out[j].Direction })
	return out, err
}

func (m *movementStore) NetAmount(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := m.src.view(func(s *state) error {
		for _, row := range s.movements {
			if row.AccountID == accountID {
				total = total.Add(row.Signed())
			}
		}
		return nil
	})
	return total, err
}

func (m *movementStore) Balance(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := m.src.view(func(s *state) error {
		for _, row := range s.movements {
			if row.AccountID == accountID {
				total = total.Add(row.Signed())
			}
		}
		for _, row := range s.fees {
			if row.AccountID == accountID {
				total = total.Sub(row.Amount)
			}
		}
		return nil
	})
	return total, err
}

func (m *movementStore) List(_ context.Context, filter *movement.MovementFilter) ([]*movement.Movement, error) {
	var out []*movement.Movement
	err := m.src.view(func(s *state) error {
		var matched []*movement.Movement
		for _, row := range s.movements {
			if filter != nil {
				if row.AccountID != filter.AccountID {
					continue
				}
				if filter.MaxCreationTime != nil && row.CreatedAt.After(*filter.MaxCreationTime) {
					continue
				}
			}
			cp := *row
			matched = append(matched, &cp)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID.String() > matched[j].ID.String()
		})
		if filter == nil {
			out = matched
			return nil
		}
		out = windowPlusOne(matched, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (m *movementStore) Insert(_ context.Context, create *movement.MovementCreate) (*movement.Movement, error) {
	row := movement.FromCreate(create)
	err := m.src.mutate(func(s *state) error {
		key := ownerKey{row.AccountID, row.IdempotencyKey}
		if _, exists := s.movementByKey[key]; exists {
			return fmt.Errorf("%w: movement (%s, %s)", dberr.ErrConflict, row.AccountID, row.IdempotencyKey)
		}
		s.movements = append(s.movements, row)
		s.movementByKey[key] = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	cp := *row
	return &cp, nil
}

// -- transfers --

var _ transfer.ITransferWriter = (*transferStore)(nil)

type transferStore struct {
	src source
}

func (t *transferStore) FindByID(_ context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := t.src.view(func(s *state) error {
		if row, ok := s.transferByID[id]; ok {
			cp := *row
			out = &cp
		}
		return nil
	})
	return out, err
}

func (t *transferStore) FindByIdempotencyKey(_ context.Context, originID uuid.UUID, key string) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	err := t.src.view(func(s *state) error {
		if row, ok := s.transferByKey[ownerKey{originID, key}]; ok {
			cp := *row
			out = &cp
		}
		return nil
	})
	return out, err
}

func (t *transferStore) List(_ context.Context, filter *transfer.TransferFilter) ([]*transfer.Transfer, error) {
	var out []*transfer.Transfer
	err := t.src.view(func(s *state) error {
		var matched []*transfer.Transfer
		for _, row := range s.transfers {
			if filter != nil {
				if row.OriginAccountID != filter.AccountID && row.DestinationAccountID != filter.AccountID {
					continue
				}
				if filter.MaxCreationTime != nil && row.CreatedAt.After(*filter.MaxCreationTime) {
					continue
				}
			}
			cp := *row
			matched = append(matched, &cp)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID.String() > matched[j].ID.String()
		})
		if filter == nil {
			out = matched
			return nil
		}
		out = windowPlusOne(matched, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (t *transferStore) Insert(_ context.Context, create *transfer.TransferCreate) (*transfer.Transfer, error) {
	row := transfer.FromCreate(create)
	err := t.src.mutate(func(s *state) error {
		key := ownerKey{row.OriginAccountID, row.IdempotencyKey}
		if _, exists := s.transferByKey[key]; exists {
			return fmt.Errorf("%w: transfer (%s, %s)", dberr.ErrConflict, row.OriginAccountID, row.IdempotencyKey)
		}
		s.transfers = append(s.transfers, row)
		s.transferByID[row.ID] = row
		s.transferByKey[key] = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	cp := *row
	return &cp, nil
}

// -- fees --

var _ fee.IFeeWriter = (*feeStore)(nil)

type feeStore struct {
	src source
}

func (f *feeStore) SumByAccount(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := f.src.view(func(s *state) error {
		for _, row := range s.fees {
			if row.AccountID == accountID {
				total = total.Add(row.Amount)
			}
		}
		return nil
	})
	return total, err
}

func (f *feeStore) FindByTransfer(_ context.Context, transferID uuid.UUID) (*fee.Fee, error) {
	var out *fee.Fee
	err := f.src.view(func(s *state) error {
		if row, ok := s.feeByTransfer[transferID]; ok {
			cp := *row
			out = &cp
		}
		return nil
	})
	return out, err
}

func (f *feeStore) Insert(_ context.Context, create *fee.FeeCreate) (*fee.Fee, error) {
	row := fee.FromCreate(create)
	err := f.src.mutate(func(s *state) error {
		if _, exists := s.feeByTransfer[row.TransferID]; exists {
			return fmt.Errorf("%w: fee for transfer %s", dberr.ErrConflict, row.TransferID)
		}
		s.fees = append(s.fees, row)
		s.feeByTransfer[row.TransferID] = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	cp := *row
	return &cp, nil
}
