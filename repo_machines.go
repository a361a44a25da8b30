package machines

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MachineRecords is the repository for machine rows. Listing helpers scope by
// owner where the route requires it; ListAll and DeleteByID are deliberately
// unscoped.
type MachineRecords interface {
	repository.Repository[*Machine]

	Register(ctx context.Context, record *Machine) (*Machine, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Machine) (*Machine, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Machine, error)
	ListAll(ctx context.Context) ([]*Machine, error)
	SearchByType(ctx context.Context, ownerID uuid.UUID, machineType string) ([]*Machine, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type machineRecords struct {
	repository.Repository[*Machine]
	db *bun.DB
}

var (
	_ MachineRecords                  = (*machineRecords)(nil)
	_ repository.Repository[*Machine] = (*machineRecords)(nil)
)

func NewMachinesRepository(db *bun.DB) MachineRecords {
	repo := repository.NewRepository[*Machine](db, repository.ModelHandlers[*Machine]{
		NewRecord: func() *Machine { return &Machine{} },
		GetID: func(m *Machine) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *Machine, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &machineRecords{
		Repository: repo,
		db:         db,
	}
}

func (a *machineRecords) Register(ctx context.Context, record *Machine) (*Machine, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *machineRecords) RegisterTx(ctx context.Context, tx bun.IDB, record *Machine) (*Machine, error) {
	prepareMachineDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *machineRecords) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Machine, error) {
	records := []*Machine{}
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *machineRecords) ListAll(ctx context.Context) ([]*Machine, error) {
	records := []*Machine{}
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// SearchByType filters the owner's machines by exact type match.
func (a *machineRecords) SearchByType(ctx context.Context, ownerID uuid.UUID, machineType string) ([]*Machine, error) {
	records := []*Machine{}
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Where("?TableAlias.type = ?", machineType).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteByID removes the row outright. Returns ErrMachineNotFound when no row
// matched so handlers can answer 404 without a prior lookup.
func (a *machineRecords) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Machine)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrMachineNotFound
	}

	return nil
}

func prepareMachineDefaults(record *Machine) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
