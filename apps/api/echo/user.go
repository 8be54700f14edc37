package echoapi

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/user"
)

var (
	errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")
	errCannotDeleteSelf = errors.New("You cannot delete your own account")

	defaultUsersLimit = 10
)

type userApi struct {
	svc        user.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, svc user.ServiceInterface, validate *validator.Validate, translator ut.Translator) {
	api := userApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}
	isAdmin := roleMiddleware(user.RoleAdmin)

	// own profile
	g.GET("/profile/me", api.retrieveProfile)
	g.PUT("/profile/me", api.updateProfile)
	g.PUT("/profile/me/password", api.changeOwnPassword)

	// admin endpoints
	g.POST("", api.create, isAdmin)
	g.GET("", api.query, isAdmin)
	g.GET("/stats/overview", api.stats, isAdmin)
	g.GET("/data/departments", api.departments, isAdmin)
	g.GET("/data/mentors", api.mentors, isAdmin)
	g.GET("/data/courses", api.courses, isAdmin)
	g.PUT("/bulk/status", api.bulkUpdateStatus, isAdmin)
	g.GET("/export/all", api.export, isAdmin)

	// detail endpoints
	dg := g.Group("/:id")
	dg.GET("", api.retrieve, isAdmin, objectMiddleware(svc))
	dg.PUT("", api.update, isAdmin, objectMiddleware(svc))
	dg.DELETE("", api.destroy, isAdmin, objectMiddleware(svc))
	dg.PUT("/password", api.changePassword, ctxUserOrAdminMiddleware(svc), objectMiddleware(svc))
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return created(ctx, "User created successfully", usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultUsersLimit
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	page, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return err
	}
	return ok(ctx, "Users retrieved successfully", page)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, found := ctx.Get("object").(user.User)
	if !found {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ok(ctx, "User retrieved successfully", usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, found := ctx.Get("object").(user.User)
	if !found {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(usr, api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ok(ctx, "User updated successfully", usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, found := ctx.Get("object").(user.User)
	if !found {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// admins cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID {
		return core.NewValidationError(errCannotDeleteSelf)
	}

	if err = api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return err
	}
	return ok(ctx, "User deleted successfully", nil)
}

// changePassword lets admins set any password. Users changing their own must confirm the current one.
func (api *userApi) changePassword(ctx echo.Context) error {
	usr, found := ctx.Get("object").(user.User)
	if !found {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err = api.svc.ChangePassword(ctx.Request().Context(), usr, data, usr.ID == ctxUsr.ID); err != nil {
		return err
	}
	return ok(ctx, "Password changed successfully", nil)
}

func (api *userApi) retrieveProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ok(ctx, "Profile retrieved successfully", usr)
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ok(ctx, "Profile updated successfully", usr)
}

func (api *userApi) changeOwnPassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err = api.svc.ChangePassword(ctx.Request().Context(), usr, data, true); err != nil {
		return err
	}
	return ok(ctx, "Password changed successfully", nil)
}

func (api *userApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ok(ctx, "User statistics retrieved successfully", stats)
}

func (api *userApi) departments(ctx echo.Context) error {
	deps, err := api.svc.Departments(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ok(ctx, "Departments retrieved successfully", deps)
}

func (api *userApi) mentors(ctx echo.Context) error {
	mentors, err := api.svc.Mentors(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ok(ctx, "Mentors retrieved successfully", mentors)
}

func (api *userApi) courses(ctx echo.Context) error {
	courses, err := api.svc.Courses(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ok(ctx, "Courses retrieved successfully", courses)
}

func (api *userApi) bulkUpdateStatus(ctx echo.Context) error {
	var data user.BulkStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.BulkUpdateStatus(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ok(ctx, "Users status updated successfully", BulkStatusResponse{Updated: n})
}

// Middleware

// ctxUserOrAdminMiddleware lets users through to their own records, admins to all of them.
func ctxUserOrAdminMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := idParam(ctx, "id", errInvalidUserID)
			if err != nil {
				return err
			}
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if id == ctxUsr.ID || ctxUsr.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// objectMiddleware loads the user of the "id" path param as the "object" of the request.
func objectMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := idParam(ctx, "id", errInvalidUserID)
			if err != nil {
				return err
			}
			usr, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				return err
			}
			ctx.Set("object", usr)
			return next(ctx)
		}
	}
}

type BulkStatusResponse struct {
	Updated int `json:"updated"`
}
