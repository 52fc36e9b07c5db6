package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Customers() Customers
	Managers() Managers
}

type mngr struct {
	db        *bun.DB
	customers Customers
	managers  Managers
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:        db,
		customers: NewCustomersRepository(db),
		managers:  NewManagersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.customers == nil {
		return errors.New("repository customers should be initialized")
	}

	if m.managers == nil {
		return errors.New("repository managers should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Customers() Customers {
	return m.customers
}

func (m mngr) Managers() Managers {
	return m.managers
}
