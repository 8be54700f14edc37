package echoapi

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core/course"
)

type subtopicApi struct {
	svc      course.ServiceInterface
	validate *validator.Validate
}

func registerSubtopicAPI(g *echo.Group, svc course.ServiceInterface, validate *validator.Validate) {
	api := subtopicApi{
		svc:      svc,
		validate: validate,
	}
	canEdit := roleMiddleware(editors...)

	g.POST("", api.create, canEdit)
	g.GET("/module/:moduleId", api.queryByModule)
	g.POST("/module/:moduleId/bulk", api.createBulk, canEdit)
	g.PUT("/module/:moduleId/reorder", api.reorder, canEdit)

	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, canEdit)
	g.DELETE("/:id", api.destroy, canEdit)
}

// Handlers

func (api *subtopicApi) create(ctx echo.Context) error {
	var data course.NewSubtopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubtopic")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubtopic(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return created(ctx, "Subtopic created successfully", sub)
}

func (api *subtopicApi) createBulk(ctx echo.Context) error {
	moduleID, err := idParam(ctx, "moduleId", errInvalidModuleID)
	if err != nil {
		return err
	}
	var data course.BulkSubtopics
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkSubtopics")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	subs, err := api.svc.CreateSubtopics(ctx.Request().Context(), moduleID, data)
	if err != nil {
		return err
	}
	return created(ctx, fmt.Sprintf("%d subtopics created successfully", len(subs)), subs)
}

func (api *subtopicApi) queryByModule(ctx echo.Context) error {
	moduleID, err := idParam(ctx, "moduleId", errInvalidModuleID)
	if err != nil {
		return err
	}
	subs, err := api.svc.QuerySubtopics(ctx.Request().Context(), moduleID)
	if err != nil {
		return err
	}
	return ok(ctx, "Subtopics retrieved successfully", subs)
}

func (api *subtopicApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidSubtopicID)
	if err != nil {
		return err
	}
	sub, err := api.svc.GetSubtopic(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(ctx, "Subtopic retrieved successfully", sub)
}

func (api *subtopicApi) update(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidSubtopicID)
	if err != nil {
		return err
	}
	var data course.UpdateSubtopic
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubtopic")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.UpdateSubtopic(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ok(ctx, "Subtopic updated successfully", sub)
}

func (api *subtopicApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx, "id", errInvalidSubtopicID)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSubtopic(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ok(ctx, "Subtopic deleted successfully", nil)
}

func (api *subtopicApi) reorder(ctx echo.Context) error {
	moduleID, err := idParam(ctx, "moduleId", errInvalidModuleID)
	if err != nil {
		return err
	}
	var data course.SubtopicOrders
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubtopicOrders")
	}
	reorders, err := data.Reorders(api.validate)
	if err != nil {
		return err
	}

	subs, err := api.svc.ReorderSubtopics(ctx.Request().Context(), moduleID, reorders)
	if err != nil {
		return err
	}
	return ok(ctx, "Subtopics reordered successfully", subs)
}
