package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core/course"
	"github.com/coding7860/sparkminds-backend/core/user"
)

// editors may write courses, modules and subtopics.
var editors = []string{user.RoleAdmin, user.RoleMentor}

type courseApi struct {
	svc      course.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, svc course.ServiceInterface, validate *validator.Validate) {
	api := courseApi{
		svc:      svc,
		validate: validate,
	}
	canEdit := roleMiddleware(editors...)

	g.POST("", api.create, canEdit)
	g.POST("/complete", api.createComplete, canEdit)
	g.GET("", api.query)
	g.GET("/hierarchy", api.queryHierarchy)

	g.GET("/:id", api.retrieve)
	g.GET("/:id/hierarchy", api.retrieveHierarchy)
	g.GET("/:id/statistics", api.statistics)
	g.PUT("/:id", api.update, canEdit)
	g.DELETE("/:id", api.destroy, canEdit)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return created(ctx, "Course created successfully", crs)
}

func (api *courseApi) createComplete(ctx echo.Context) error {
	var data course.NewCompleteCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCompleteCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tree, err := api.svc.CreateComplete(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return created(ctx, "Complete course created successfully", tree)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return err
	}
	return ok(ctx, "Courses retrieved successfully", courses)
}

func (api *courseApi) queryHierarchy(ctx echo.Context) error {
	trees, err := api.svc.QueryWithHierarchy(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ok(ctx, "Courses with modules and subtopics retrieved successfully", trees)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidCourseID)
	if err != nil {
		return err
	}
	crs, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(ctx, "Course retrieved successfully", crs)
}

func (api *courseApi) retrieveHierarchy(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidCourseID)
	if err != nil {
		return err
	}
	tree, err := api.svc.GetWithHierarchy(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(ctx, "Course with modules and subtopics retrieved successfully", tree)
}

func (api *courseApi) statistics(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidCourseID)
	if err != nil {
		return err
	}
	stats, err := api.svc.Statistics(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(ctx, "Course statistics retrieved successfully", stats)
}

func (api *courseApi) update(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidCourseID)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ok(ctx, "Course updated successfully", crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidCourseID)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ok(ctx, "Course deleted successfully", nil)
}
