package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core/schedule"
	"github.com/coding7860/sparkminds-backend/core/user"
)

type classApi struct {
	svc      schedule.ServiceInterface
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, svc schedule.ServiceInterface, validate *validator.Validate) {
	api := classApi{
		svc:      svc,
		validate: validate,
	}
	isAdmin := roleMiddleware(user.RoleAdmin)

	g.POST("", api.create, isAdmin)
	g.GET("", api.query)
	g.GET("/upcoming", api.queryUpcoming)
	g.GET("/course/:courseId", api.queryByCourse)
	g.GET("/mentor/:mentorName", api.queryByMentor)

	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, isAdmin)
	g.DELETE("/:id", api.destroy, isAdmin)
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data schedule.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return created(ctx, "Class schedule created successfully", cls)
}

func (api *classApi) query(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	page, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ok(ctx, "Classes retrieved successfully", page)
}

func (api *classApi) queryUpcoming(ctx echo.Context) error {
	classes, err := api.svc.List(ctx.Request().Context(), schedule.QueryFilter{Upcoming: true})
	if err != nil {
		return err
	}
	return ok(ctx, "Upcoming classes retrieved successfully", classes)
}

func (api *classApi) queryByCourse(ctx echo.Context) error {
	courseID, err := idParam(ctx, "courseId", errInvalidCourseID)
	if err != nil {
		return err
	}
	classes, err := api.svc.List(ctx.Request().Context(), schedule.QueryFilter{CourseID: courseID})
	if err != nil {
		return err
	}
	return ok(ctx, "Classes by course retrieved successfully", classes)
}

func (api *classApi) queryByMentor(ctx echo.Context) error {
	classes, err := api.svc.List(ctx.Request().Context(), schedule.QueryFilter{MentorName: textParam(ctx, "mentorName")})
	if err != nil {
		return err
	}
	return ok(ctx, "Classes by mentor retrieved successfully", classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidClassID)
	if err != nil {
		return err
	}
	cls, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(ctx, "Class schedule retrieved successfully", cls)
}

func (api *classApi) update(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidClassID)
	if err != nil {
		return err
	}
	var data schedule.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ok(ctx, "Class schedule updated successfully", cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidClassID)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ok(ctx, "Class schedule deleted successfully", nil)
}
