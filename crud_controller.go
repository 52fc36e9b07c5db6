package accounts

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// AccountsController serves the account management endpoints for both
// identity stores. Every route sits behind the bearer middleware.
type AccountsController struct {
	Logger       Logger
	Repo         RepositoryManager
	ErrorHandler router.ErrorHandler
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func WithAccountsRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

func WithAccountsLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Logger = logger
		return c
	}
}

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return RenderError(ctx, c.Logger, err)
		}
	}

	return c
}

// RegisterAccountRoutes mounts the account CRUD endpoints behind the
// given middleware.
func RegisterAccountRoutes[T any](app router.Router[T], protected router.MiddlewareFunc, opts ...AccountsControllerOption) *AccountsController {
	controller := NewAccountsController(opts...)

	app.Get("/customers", controller.CustomersList, protected).
		SetName("customers.list")
	app.Get("/customers/:id", controller.CustomersShow, protected).
		SetName("customers.show")
	app.Put("/customers/:id", controller.CustomersUpdate, protected).
		SetName("customers.update")
	app.Delete("/customers/:id", controller.CustomersDelete, protected).
		SetName("customers.delete")

	app.Get("/managers", controller.ManagersList, protected).
		SetName("managers.list")
	app.Get("/managers/:id", controller.ManagersShow, protected).
		SetName("managers.show")
	app.Put("/managers/:id", controller.ManagersUpdate, protected).
		SetName("managers.update")
	app.Delete("/managers/:id", controller.ManagersDelete, protected).
		SetName("managers.delete")

	return controller
}

// AccountUpdateRequest carries partial updates, absent fields keep
// their stored value.
type AccountUpdateRequest struct {
	Name   string `form:"name" json:"name"`
	Email  string `form:"email" json:"email"`
	Secret string `form:"secret" json:"secret"`
	TaxID  string `form:"taxId" json:"taxId"`
	Phone  string `form:"phone" json:"phone"`
}

// Validate will run validation rules on the present fields
func (r AccountUpdateRequest) Validate(kind ProfileKind) error {
	fields := []*validation.FieldRules{
		validation.Field(&r.Name, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Length(0, 120), is.Email),
		validation.Field(&r.Secret, validation.Length(6, 100)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	}

	if kind == KindManager {
		fields = append(fields, validation.Field(
			&r.TaxID,
			validation.Length(14, 20),
			is.Digit,
		))
	} else {
		fields = append(fields, validation.Field(
			&r.TaxID,
			validation.By(blankForCustomers),
		))
	}

	return validation.ValidateStruct(&r, fields...)
}

func (a *AccountsController) CustomersList(ctx router.Context) error {
	records, err := a.Repo.Customers().List(ctx.Context())
	if err != nil {
		a.Logger.Error("customers list error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"items": records,
	})
}

func (a *AccountsController) CustomersShow(ctx router.Context) error {
	record, err := a.Repo.Customers().GetByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, a.notFoundOr(err))
	}

	return ctx.JSON(http.StatusOK, record)
}

func (a *AccountsController) CustomersUpdate(ctx router.Context) error {
	payload := new(AccountUpdateRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badRequestError(err))
	}

	if err := payload.Validate(KindCustomer); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record, err := a.Repo.Customers().GetByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, a.notFoundOr(err))
	}

	if err := a.applyCustomerUpdate(record, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	updated, err := a.Repo.Customers().Update(
		ctx.Context(),
		record,
		repository.UpdateByID(record.ID.String()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return a.ErrorHandler(ctx, ErrDuplicateEmail)
		}
		a.Logger.Error("customer update error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, updated)
}

func (a *AccountsController) CustomersDelete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrIdentityNotFound)
	}

	if err := a.Repo.Customers().Remove(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, a.notFoundOr(err))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Account removed",
	})
}

func (a *AccountsController) ManagersList(ctx router.Context) error {
	records, err := a.Repo.Managers().List(ctx.Context())
	if err != nil {
		a.Logger.Error("managers list error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"items": records,
	})
}

func (a *AccountsController) ManagersShow(ctx router.Context) error {
	record, err := a.Repo.Managers().GetByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, a.notFoundOr(err))
	}

	return ctx.JSON(http.StatusOK, record)
}

func (a *AccountsController) ManagersUpdate(ctx router.Context) error {
	payload := new(AccountUpdateRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badRequestError(err))
	}

	if err := payload.Validate(KindManager); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record, err := a.Repo.Managers().GetByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, a.notFoundOr(err))
	}

	if err := a.applyManagerUpdate(record, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	updated, err := a.Repo.Managers().Update(
		ctx.Context(),
		record,
		repository.UpdateByID(record.ID.String()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return a.ErrorHandler(ctx, ErrDuplicateEmail)
		}
		a.Logger.Error("manager update error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, updated)
}

func (a *AccountsController) ManagersDelete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrIdentityNotFound)
	}

	if err := a.Repo.Managers().Remove(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, a.notFoundOr(err))
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Account removed",
	})
}

func (a *AccountsController) applyCustomerUpdate(record *Customer, payload *AccountUpdateRequest) error {
	if payload.Name != "" {
		record.Name = payload.Name
	}
	if payload.Email != "" {
		record.Email = normalizeEmail(payload.Email)
	}
	if payload.Phone != "" {
		record.Phone = payload.Phone
	}
	if payload.Secret != "" {
		hash, err := HashPassword(payload.Secret)
		if err != nil {
			return err
		}
		record.SecretHash = hash
	}
	return nil
}

func (a *AccountsController) applyManagerUpdate(record *Manager, payload *AccountUpdateRequest) error {
	if payload.Name != "" {
		record.Name = payload.Name
	}
	if payload.Email != "" {
		record.Email = normalizeEmail(payload.Email)
	}
	if payload.Phone != "" {
		record.Phone = payload.Phone
	}
	if payload.TaxID != "" {
		record.TaxID = payload.TaxID
	}
	if payload.Secret != "" {
		hash, err := HashPassword(payload.Secret)
		if err != nil {
			return err
		}
		record.SecretHash = hash
	}
	return nil
}

func (a *AccountsController) notFoundOr(err error) error {
	if repository.IsRecordNotFound(err) {
		return ErrIdentityNotFound
	}
	return err
}
