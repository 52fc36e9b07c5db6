package accounts

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Customers interface {
	repository.Repository[*Customer]

	GetByEmail(ctx context.Context, email string) (*Customer, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Customer, error)

	Register(ctx context.Context, record *Customer) (*Customer, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Customer) (*Customer, error)
	Create(ctx context.Context, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error)

	TrackSuccessfulLogin(ctx context.Context, record *Customer) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, record *Customer) error

	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Customer, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type customers struct {
	repository.Repository[*Customer]
	db *bun.DB
}

var (
	_ Customers                        = (*customers)(nil)
	_ repository.Repository[*Customer] = (*customers)(nil)
)

func NewCustomersRepository(db *bun.DB) Customers {
	repo := repository.NewRepository[*Customer](db, repository.ModelHandlers[*Customer]{
		NewRecord: func() *Customer { return &Customer{} },
		GetID: func(c *Customer) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Customer, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &customers{
		Repository: repo,
		db:         db,
	}
}

func (a *customers) Register(ctx context.Context, record *Customer) (*Customer, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *customers) RegisterTx(ctx context.Context, tx bun.IDB, record *Customer) (*Customer, error) {
	return a.CreateTx(ctx, tx, record)
}

func (a *customers) Create(ctx context.Context, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *customers) CreateTx(ctx context.Context, tx bun.IDB, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error) {
	prepareCustomerDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *customers) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *customers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Customer, error) {
	record := &Customer{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *customers) TrackSuccessfulLogin(ctx context.Context, record *Customer) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, record)
}

func (a *customers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, record *Customer) error {
	_, err := tx.NewRaw(`
		UPDATE "customers" AS "cst"
		SET
			"loggedin_at" = CURRENT_TIMESTAMP
		WHERE
			("cst".id = ?)
			AND "cst"."deleted_at" IS NULL;
	`, record.ID).Exec(ctx)

	return err
}

func (a *customers) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Customer, error) {
	records := []*Customer{}
	q := a.db.NewSelect().Model(&records)

	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Order("cst.created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

// Remove soft deletes the record, freeing its email for reuse is
// intentionally NOT done: the unique index still holds the row.
func (a *customers) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Customer)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareCustomerDefaults(record *Customer) {
	if record == nil {
		return
	}

	record.Email = normalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
