package machines

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// MachineControllerRoutes holds the route paths the controller mounts. The
// show route matches any path segment, so it has to be registered last.
type MachineControllerRoutes struct {
	Add    string
	Mine   string
	All    string
	Search string
	Show   string
	Update string
	Delete string
}

// MachineController serves the machine record API. Every route except All
// runs behind the token gate and resolves the caller from the router locals.
type MachineController struct {
	Logger         Logger
	Repo           RepositoryManager
	Routes         *MachineControllerRoutes
	ErrorHandler   HTTPErrorResponder
	UserContextKey string
}

type MachineControllerOption func(*MachineController) *MachineController

func WithMachineLogger(logger Logger) MachineControllerOption {
	return func(c *MachineController) *MachineController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithMachineRepository(repo RepositoryManager) MachineControllerOption {
	return func(c *MachineController) *MachineController {
		c.Repo = repo
		return c
	}
}

func WithMachineErrorHandler(handler HTTPErrorResponder) MachineControllerOption {
	return func(c *MachineController) *MachineController {
		if handler != nil {
			c.ErrorHandler = handler
		}
		return c
	}
}

func WithMachineUserContextKey(key string) MachineControllerOption {
	return func(c *MachineController) *MachineController {
		if key != "" {
			c.UserContextKey = key
		}
		return c
	}
}

func NewMachineController(opts ...MachineControllerOption) *MachineController {
	c := &MachineController{
		Logger:         defLogger{},
		UserContextKey: "current_user",
		Routes: &MachineControllerRoutes{
			Add:    "/add",
			Mine:   "/all",
			All:    "/all-machines",
			Search: "/search",
			Show:   "/:id",
			Update: "/update/:id",
			Delete: "/delete/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in machine controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = newErrorResponder(c.Logger)
	}

	return c
}

// RegisterMachineRoutes mounts the machine API on the given router. The
// public listing skips the gate; everything else runs behind it. Show is
// registered last so fixed paths win over the :id segment.
func RegisterMachineRoutes[T any](app router.Router[T], protected router.MiddlewareFunc, opts ...MachineControllerOption) *MachineController {
	c := NewMachineController(opts...)

	app.Post(c.Routes.Add, c.Create, protected).SetName("machine.add")
	app.Get(c.Routes.Mine, c.ListMine, protected).SetName("machine.list")
	app.Get(c.Routes.All, c.ListAll).SetName("machine.list-all")
	app.Get(c.Routes.Search, c.Search, protected).SetName("machine.search")
	app.Put(c.Routes.Update, c.Update, protected).SetName("machine.update")
	app.Delete(c.Routes.Delete, c.Delete, protected).SetName("machine.delete")
	app.Get(c.Routes.Show, c.Show, protected).SetName("machine.show")

	return c
}

// MachinePayload is the create and update request body.
type MachinePayload struct {
	Type       string `form:"type" json:"type"`
	Definition string `form:"definition" json:"definition"`
	Brand      string `form:"brand" json:"brand"`
}

// Validate will run validation rules
func (r MachinePayload) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.Definition, validation.Required),
		validation.Field(&r.Brand, validation.Required),
	)
	if err == nil {
		return nil
	}

	return errors.New("Please provide type, definition, and brand", errors.CategoryValidation).
		WithTextCode("MACHINE_PAYLOAD_INVALID").
		WithCode(errors.CodeBadRequest)
}

func (a *MachineController) caller(ctx router.Context) (*User, error) {
	user, ok := UserFromRouterContext(ctx, a.UserContextKey)
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return user, nil
}

func (a *MachineController) Create(ctx router.Context) error {
	user, err := a.caller(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(MachinePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("create machine parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "Please provide type, definition, and brand").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record, err := a.Repo.Machines().Register(ctx.Context(), &Machine{
		Type:       payload.Type,
		Definition: payload.Definition,
		Brand:      payload.Brand,
		OwnerID:    user.ID,
	})
	if err != nil {
		a.Logger.Error("create machine", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "Server Error").
			WithCode(errors.CodeInternal))
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"success": true,
		"machine": record,
	})
}

func (a *MachineController) ListMine(ctx router.Context) error {
	user, err := a.caller(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	records, err := a.Repo.Machines().ListByOwner(ctx.Context(), user.ID)
	if err != nil {
		a.Logger.Error("list machines", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "Error fetching machines").
			WithCode(errors.CodeInternal))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":  true,
		"machines": records,
	})
}

// ListAll is the public listing, no gate and no owner scope.
func (a *MachineController) ListAll(ctx router.Context) error {
	records, err := a.Repo.Machines().ListAll(ctx.Context())
	if err != nil {
		a.Logger.Error("list all machines", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "Error fetching machines").
			WithCode(errors.CodeInternal))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":  true,
		"machines": records,
	})
}

func (a *MachineController) Search(ctx router.Context) error {
	user, err := a.caller(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	machineType := ctx.Query("type", "")

	var records []*Machine
	if machineType == "" {
		records, err = a.Repo.Machines().ListByOwner(ctx.Context(), user.ID)
	} else {
		records, err = a.Repo.Machines().SearchByType(ctx.Context(), user.ID, machineType)
	}

	if err != nil {
		a.Logger.Error("search machines", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "Server Error").
			WithCode(errors.CodeInternal))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":  true,
		"machines": records,
	})
}

func (a *MachineController) Show(ctx router.Context) error {
	if _, err := a.caller(ctx); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record, err := a.findByID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"machine": record,
	})
}

func (a *MachineController) Update(ctx router.Context) error {
	user, err := a.caller(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(MachinePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("update machine parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "Please provide type, definition, and brand").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record, err := a.findByID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !record.OwnedBy(user.ID) {
		return a.ErrorHandler(ctx, ErrNotMachineOwner)
	}

	record.Type = payload.Type
	record.Definition = payload.Definition
	record.Brand = payload.Brand

	updated, err := a.Repo.Machines().Update(ctx.Context(), record)
	if err != nil {
		a.Logger.Error("update machine", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "Server Error").
			WithCode(errors.CodeInternal))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"machine": updated,
	})
}

// Delete removes the record by id. There is no ownership check here, any
// authenticated caller can delete any machine, matching the listing route
// that exposes every record to begin with.
func (a *MachineController) Delete(ctx router.Context) error {
	if _, err := a.caller(ctx); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrMachineNotFound)
	}

	if err := a.Repo.Machines().DeleteByID(ctx.Context(), id); err != nil {
		if isRecordNotFound(err) {
			return a.ErrorHandler(ctx, ErrMachineNotFound)
		}
		a.Logger.Error("delete machine", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "Server Error").
			WithCode(errors.CodeInternal))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": "Machine deleted successfully",
	})
}

func (a *MachineController) findByID(ctx router.Context) (*Machine, error) {
	raw := ctx.Param("id", "")
	if _, err := uuid.Parse(raw); err != nil {
		return nil, ErrMachineNotFound
	}

	record, err := a.Repo.Machines().GetByID(ctx.Context(), raw)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrMachineNotFound
		}
		a.Logger.Error("fetch machine", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "Server Error").
			WithCode(errors.CodeInternal)
	}

	if record == nil {
		return nil, ErrMachineNotFound
	}

	return record, nil
}
