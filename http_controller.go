package accounts

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-accounts/middleware/jwtware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

type AuthControllerRoutes struct {
	Register string
	Login    string
	Me       string
	Logout   string
	Refresh  string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	ContextKey   string
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ContextKey = key
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Me:       "/auth/me",
			Logout:   "/auth/logout",
			Refresh:  "/auth/refresh",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return RenderError(ctx, c.Logger, err)
		}
	}

	return c
}

// RegisterAuthRoutes mounts the session endpoints. The protected
// middleware guards me, logout, and refresh; register and login stay
// open.
func RegisterAuthRoutes[T any](app router.Router[T], protected router.MiddlewareFunc, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Get(controller.Routes.Me, controller.MeGet, protected).
		SetName("auth.me")
	app.Post(controller.Routes.Logout, controller.LogoutPost, protected).
		SetName("auth.logout")
	app.Post(controller.Routes.Refresh, controller.RefreshPost, protected).
		SetName("auth.refresh")

	return controller
}

// RegisterRequest payload
type RegisterRequest struct {
	ProfileKind string `form:"profileKind" json:"profileKind"`
	Name        string `form:"name" json:"name"`
	Email       string `form:"email" json:"email"`
	Secret      string `form:"secret" json:"secret"`
	TaxID       string `form:"taxId" json:"taxId"`
	Phone       string `form:"phone" json:"phone"`
}

// Validate will run validation rules. The tax id only applies to
// manager registrations, customers may not send one at all.
func (r RegisterRequest) Validate() error {
	fields := []*validation.FieldRules{
		validation.Field(
			&r.ProfileKind,
			validation.Required,
			validation.In(KindCustomer, KindManager),
		),
		validation.Field(&r.Name, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(0, 120), is.Email),
		validation.Field(&r.Secret, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	}

	if r.ProfileKind == KindManager {
		fields = append(fields, validation.Field(
			&r.TaxID,
			validation.Required,
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

func blankForCustomers(value any) error {
	s, _ := value.(string)
	if s != "" {
		return errors.New("must be blank for customer accounts")
	}
	return nil
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return a.ErrorHandler(ctx, badRequestError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	identity, token, err := a.Auther.Register(ctx.Context(), RegisterInput{
		Kind:   payload.ProfileKind,
		Name:   payload.Name,
		Email:  payload.Email,
		Secret: payload.Secret,
		TaxID:  payload.TaxID,
		Phone:  payload.Phone,
	})
	if err != nil {
		a.Logger.Error("register error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"message": "Account created",
		"token":   token,
		"user": map[string]any{
			"id":          identity.ID(),
			"profileKind": identity.Kind(),
		},
	})
}

// LoginRequest payload
type LoginRequest struct {
	ProfileKind string `form:"profileKind" json:"profileKind"`
	Email       string `form:"email" json:"email"`
	Secret      string `form:"secret" json:"secret"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.ProfileKind,
			validation.Required,
			validation.In(KindCustomer, KindManager),
		),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Secret, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, badRequestError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	identity, token, err := a.Auther.Login(ctx.Context(), payload.ProfileKind, payload.Email, payload.Secret)
	if err != nil {
		a.Logger.Warn("login error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Authenticated",
		"token":   token,
		"user": map[string]any{
			"id":          identity.ID(),
			"name":        identity.Name(),
			"email":       identity.Email(),
			"profileKind": identity.Kind(),
		},
	})
}

// MeGet resolves the live identity behind the bearer token, not just
// the claims, so a deleted account stops answering immediately.
func (a *AuthController) MeGet(ctx router.Context) error {
	raw, err := GetRawToken(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	identity, err := a.Auther.Authenticate(ctx.Context(), raw)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"id":          identity.ID(),
		"name":        identity.Name(),
		"email":       identity.Email(),
		"profileKind": identity.Kind(),
	})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	raw, err := GetRawToken(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Auther.Logout(ctx.Context(), raw); err != nil {
		a.Logger.Error("logout error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Session terminated",
	})
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	raw, err := GetRawToken(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	token, err := a.Auther.Refresh(ctx.Context(), raw)
	if err != nil {
		a.Logger.Error("refresh error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Token refreshed",
		"token":   token,
	})
}

// ValidatePhoneNumber accepts empty values, anything else has to parse
// as a phone number with a country code.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return errors.New("must be a valid phone number with country code")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

func badRequestError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse request body").
		WithTextCode("BAD_REQUEST").
		WithCode(goerrors.CodeBadRequest)
}

// RenderError maps an error to the API error envelope. Validation
// failures carry a field map, everything else is just a code and a
// message. Token errors of every flavor collapse into a single
// external code so callers can not tell a revoked token from an
// expired one.
func RenderError(ctx router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	// a request that never carried a usable bearer token is a 401, not
	// a server fault
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return ctx.JSON(http.StatusUnauthorized, map[string]any{
			"error":   ErrInvalidOrExpiredToken.TextCode,
			"message": ErrInvalidOrExpiredToken.Message,
		})
	}

	if verr, ok := err.(validation.Errors); ok {
		fields := map[string]string{}
		for name, ferr := range verr {
			fields[name] = ferr.Error()
		}
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":   "VALIDATION_ERROR",
			"message": "The given data was invalid",
			"errors":  fields,
		})
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		logger.Error("unhandled error", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error":   "SERVER_ERROR",
			"message": "An unexpected server error occurred",
		})
	}

	status, code := statusFor(richErr)

	if status >= http.StatusInternalServerError {
		logger.Error("request error",
			"error", richErr.Message,
			"text_code", richErr.TextCode,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
	}

	return ctx.JSON(status, map[string]any{
		"error":   code,
		"message": richErr.Message,
	})
}

func statusFor(richErr *goerrors.Error) (int, string) {
	switch richErr.TextCode {
	case ErrDuplicateEmail.TextCode:
		return http.StatusConflict, richErr.TextCode
	case ErrInvalidCredentials.TextCode:
		return http.StatusUnauthorized, richErr.TextCode
	case ErrTokenExpired.TextCode,
		ErrTokenMalformed.TextCode,
		ErrTokenRevoked.TextCode,
		ErrInvalidOrExpiredToken.TextCode:
		return http.StatusUnauthorized, ErrInvalidOrExpiredToken.TextCode
	case ErrTokenOperationFailed.TextCode:
		return http.StatusInternalServerError, richErr.TextCode
	case ErrIdentityNotFound.TextCode:
		return http.StatusNotFound, richErr.TextCode
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case goerrors.CategoryConflict:
		return http.StatusConflict, richErr.TextCode
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return http.StatusUnauthorized, ErrInvalidOrExpiredToken.TextCode
	case goerrors.CategoryNotFound:
		return http.StatusNotFound, ErrIdentityNotFound.TextCode
	}

	return http.StatusInternalServerError, "SERVER_ERROR"
}
