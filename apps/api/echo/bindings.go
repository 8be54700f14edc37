package echoapi

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core"
)

var (
	orderingParam = "ordering"

	errInvalidCourseID   = errors.New("Valid course ID is required")
	errInvalidModuleID   = errors.New("Valid module ID is required")
	errInvalidSubtopicID = errors.New("Valid subtopic ID is required")
	errInvalidClassID    = errors.New("Valid class ID is required")
	errInvalidUserID     = errors.New("Valid user ID is required")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// idParam parses the positive integer path param name. errInvalid is returned as a validation error otherwise.
func idParam(ctx echo.Context, name string, errInvalid error) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, core.NewValidationError(errInvalid)
	}
	return id, nil
}

// textParam returns the unescaped path param name.
func textParam(ctx echo.Context, name string) string {
	val := ctx.Param(name)
	if unescaped, err := url.PathUnescape(val); err == nil {
		return unescaped
	}
	return val
}
