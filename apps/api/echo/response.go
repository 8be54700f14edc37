package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(ctx echo.Context, code int, msg string, data interface{}) error {
	return ctx.JSON(code, Response{Success: true, Message: msg, Data: data})
}

func ok(ctx echo.Context, msg string, data interface{}) error {
	return respond(ctx, http.StatusOK, msg, data)
}

func created(ctx echo.Context, msg string, data interface{}) error {
	return respond(ctx, http.StatusCreated, msg, data)
}
