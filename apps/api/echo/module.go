package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core/course"
)

type moduleApi struct {
	svc      course.ServiceInterface
	validate *validator.Validate
}

func registerModuleAPI(g *echo.Group, svc course.ServiceInterface, validate *validator.Validate) {
	api := moduleApi{
		svc:      svc,
		validate: validate,
	}
	canEdit := roleMiddleware(editors...)

	g.POST("", api.create, canEdit)
	g.GET("/course/:courseId", api.queryByCourse)
	g.PUT("/course/:courseId/reorder", api.reorder, canEdit)

	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, canEdit)
	g.DELETE("/:id", api.destroy, canEdit)
}

// Handlers

func (api *moduleApi) create(ctx echo.Context) error {
	var data course.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.CreateModule(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return created(ctx, "Module created successfully", mod)
}

// queryByCourse lists the modules of a course with their subtopics.
func (api *moduleApi) queryByCourse(ctx echo.Context) error {
	courseID, err := idParam(ctx, "courseId", errInvalidCourseID)
	if err != nil {
		return err
	}
	tree, err := api.svc.GetWithHierarchy(ctx.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return ok(ctx, "Modules retrieved successfully", tree.Modules)
}

func (api *moduleApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidModuleID)
	if err != nil {
		return err
	}
	mod, err := api.svc.GetModule(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(ctx, "Module retrieved successfully", mod)
}

func (api *moduleApi) update(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidModuleID)
	if err != nil {
		return err
	}
	var data course.UpdateModule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.UpdateModule(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ok(ctx, "Module updated successfully", mod)
}

func (api *moduleApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidModuleID)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteModule(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ok(ctx, "Module deleted successfully", nil)
}

func (api *moduleApi) reorder(ctx echo.Context) error {
	courseID, err := idParam(ctx, "courseId", errInvalidCourseID)
	if err != nil {
		return err
	}
	var data course.ModuleOrders
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModuleOrders")
	}
	reorders, err := data.Reorders(api.validate)
	if err != nil {
		return err
	}

	mods, err := api.svc.ReorderModules(ctx.Request().Context(), courseID, reorders)
	if err != nil {
		return err
	}
	return ok(ctx, "Modules reordered successfully", mods)
}
