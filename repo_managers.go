package accounts

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Managers interface {
	repository.Repository[*Manager]

	GetByEmail(ctx context.Context, email string) (*Manager, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Manager, error)

	Register(ctx context.Context, record *Manager) (*Manager, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Manager) (*Manager, error)
	Create(ctx context.Context, record *Manager, criteria ...repository.InsertCriteria) (*Manager, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Manager, criteria ...repository.InsertCriteria) (*Manager, error)

	TrackSuccessfulLogin(ctx context.Context, record *Manager) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, record *Manager) error

	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Manager, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type managers struct {
	repository.Repository[*Manager]
	db *bun.DB
}

var (
	_ Managers                        = (*managers)(nil)
	_ repository.Repository[*Manager] = (*managers)(nil)
)

func NewManagersRepository(db *bun.DB) Managers {
	repo := repository.NewRepository[*Manager](db, repository.ModelHandlers[*Manager]{
		NewRecord: func() *Manager { return &Manager{} },
		GetID: func(m *Manager) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *Manager, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &managers{
		Repository: repo,
		db:         db,
	}
}

func (a *managers) Register(ctx context.Context, record *Manager) (*Manager, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *managers) RegisterTx(ctx context.Context, tx bun.IDB, record *Manager) (*Manager, error) {
	return a.CreateTx(ctx, tx, record)
}

func (a *managers) Create(ctx context.Context, record *Manager, criteria ...repository.InsertCriteria) (*Manager, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *managers) CreateTx(ctx context.Context, tx bun.IDB, record *Manager, criteria ...repository.InsertCriteria) (*Manager, error) {
	prepareManagerDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *managers) GetByEmail(ctx context.Context, email string) (*Manager, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *managers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Manager, error) {
	record := &Manager{}
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

func (a *managers) TrackSuccessfulLogin(ctx context.Context, record *Manager) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, record)
}

func (a *managers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, record *Manager) error {
	_, err := tx.NewRaw(`
		UPDATE "managers" AS "mgr"
		SET
			"loggedin_at" = CURRENT_TIMESTAMP
		WHERE
			("mgr".id = ?)
			AND "mgr"."deleted_at" IS NULL;
	`, record.ID).Exec(ctx)

	return err
}

func (a *managers) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Manager, error) {
	records := []*Manager{}
	q := a.db.NewSelect().Model(&records)

	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Order("mgr.created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *managers) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Manager)(nil)).
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

func prepareManagerDefaults(record *Manager) {
	if record == nil {
		return
	}

	record.Email = normalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
