package echoapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core/user"
)

var usersCSVHeader = []string{
	"ID", "Username", "Email", "First Name", "Last Name", "Role", "Department", "Phone",
	"Status", "Enrolled Course", "Assigned Mentor", "Last Login", "Created At",
}

// export downloads every user as CSV, in the same order as the list endpoint.
func (api *userApi) export(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	page, err := api.svc.Query(ctx.Request().Context(), &user.QueryFilter{}, ordering.Orderings)
	if err != nil {
		return err
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="users-%s.csv"`, time.Now().Format("2006-01-02")))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err = w.Write(usersCSVHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, usr := range page.Users {
		if err = w.Write(userCSVRecord(usr)); err != nil {
			return errors.Wrap(err, "writing csv record")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing csv")
}

func userCSVRecord(usr user.User) []string {
	var lastLogin string
	if usr.LastLogin != nil {
		lastLogin = usr.LastLogin.Format(time.RFC3339)
	}
	return []string{
		strconv.Itoa(usr.ID),
		usr.Username,
		usr.Email,
		usr.FirstName,
		usr.LastName,
		usr.Role,
		usr.Department,
		usr.Phone,
		usr.Status,
		usr.EnrolledCourseName,
		usr.AssignedMentorName,
		lastLogin,
		usr.CreatedAt.Format(time.RFC3339),
	}
}
