package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/user"
)

var (
	errTokenRequired        = echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	errInvalidToken         = echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	errInvalidSession       = echo.NewHTTPError(http.StatusUnauthorized, "Invalid user session. Please login again.")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "Account is deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "Refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "Access denied. Insufficient permissions")
	errTooManyRequests      = echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")

	errValidationFailed = "Validation failed"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		res := Response{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			switch {
			case origErr == middleware.ErrJWTMissing:
				origErr = errTokenRequired
			case origErr.Code == http.StatusUnauthorized && origErr.Internal != nil:
				// jwt parsing failures
				if _, ok := origErr.Internal.(*echo.HTTPError); !ok {
					origErr = errInvalidToken
				}
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			res.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			res.Message = errValidationFailed
			res.Data = core.TranslateFieldErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			res.Message = origErr.Error()
			if res.Message == "" {
				res.Message = errValidationFailed
			}
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				res.Data = fldErrs
			}
		case *core.NotFoundError:
			code = http.StatusNotFound
			res.Message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			res.Message = msg
			res.Error = err.Error()

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.UserID
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{"path": ctx.Path()}, usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
