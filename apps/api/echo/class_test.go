package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding7860/sparkminds-backend/core/schedule"
)

// inDays returns the date n days from today.
func inDays(n int) string {
	return time.Now().AddDate(0, 0, n).Format(schedule.DateLayout)
}

func createClass(t *testing.T, title, mentor, date string, courseID *int) schedule.Class {
	cls, err := clsSvc.Create(ctxBg, schedule.NewClass{
		ClassTitle:  title,
		Description: title + " description",
		CourseID:    courseID,
		MentorName:  mentor,
		ClassDate:   date,
		ClassTime:   "10:00:00",
		Duration:    "2 hours",
		ClassType:   "Virtual",
		MaxTrainees: 25,
	})
	require.NoError(t, err)
	return cls
}

func TestClass_Create(t *testing.T) {
	app := setup(t)
	tkn := createStaff(t)
	future := inDays(7)

	tests := []httpTest{
		{
			name:     "mentor",
			token:    tkn.mentor,
			body:     []byte(`{"classTitle": "Intro"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "missing fields",
			token:    tkn.admin,
			body:     []byte(`{"classTitle": "Intro", "description": "First class"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Missing required fields: class_title, description, mentor_name, class_date, class_time")),
		},
		{
			name:  "bad date",
			token: tkn.admin,
			body: []byte(`{"classTitle": "Intro", "description": "First class", "mentorName": "Jane Doe",
				"classDate": "07/01/2030", "classTime": "10:00:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Invalid date format. Use YYYY-MM-DD")),
		},
		{
			name:  "bad time",
			token: tkn.admin,
			body: []byte(`{"classTitle": "Intro", "description": "First class", "mentorName": "Jane Doe",
				"classDate": "` + future + `", "classTime": "10am"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Invalid time format. Use HH:MM:SS")),
		},
		{
			name:  "past",
			token: tkn.admin,
			body: []byte(`{"classTitle": "Intro", "description": "First class", "mentorName": "Jane Doe",
				"classDate": "2020-01-01", "classTime": "10:00:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Class date and time must be in the future")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(app, http.MethodPost, "/v1/classes", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		body := []byte(`{"classTitle": "Intro", "description": "First class", "mentorName": "Jane Doe",
			"classDate": "` + future + `", "classTime": "10:00:00"}`)
		rec := do(app, http.MethodPost, "/v1/classes", tkn.admin, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var cls schedule.Class
		res := decode(t, rec, &cls)
		assert.Equal(t, "Class schedule created successfully", res.Message)
		assert.Equal(t, "2 hours", cls.Duration)
		assert.Equal(t, "Virtual", cls.ClassType)
		assert.Equal(t, 25, cls.MaxTrainees)
		assert.Nil(t, cls.CourseID)
		assert.Nil(t, cls.MeetingLink)
	})
}

func TestClass_Query(t *testing.T) {
	app := setup(t)
	tkn := createStaff(t)
	courseID := 42
	createClass(t, "One", "Jane Doe", inDays(1), &courseID)
	createClass(t, "Two", "Jane Doe", inDays(2), nil)
	createClass(t, "Three", "John Roe", inDays(3), &courseID)

	t.Run("paginated newest first", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/classes?page=1&limit=2", tkn.trainee)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page schedule.Page
		res := decode(t, rec, &page)
		assert.Equal(t, "Classes retrieved successfully", res.Message)
		require.Len(t, page.Classes, 2)
		assert.Equal(t, "Three", page.Classes[0].ClassTitle)
		assert.Equal(t, "Two", page.Classes[1].ClassTitle)
		assert.Equal(t, schedule.Pagination{
			CurrentPage:  1,
			TotalPages:   2,
			TotalClasses: 3,
			HasNextPage:  true,
			HasPrevPage:  false,
		}, page.Pagination)
	})

	t.Run("combined filters", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/classes?courseId=42&mentorName=Jane%20Doe", tkn.trainee)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page schedule.Page
		decode(t, rec, &page)
		require.Len(t, page.Classes, 1)
		assert.Equal(t, "One", page.Classes[0].ClassTitle)
	})

	t.Run("upcoming is chronological", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/classes/upcoming", tkn.trainee)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var classes []schedule.Class
		res := decode(t, rec, &classes)
		assert.Equal(t, "Upcoming classes retrieved successfully", res.Message)
		require.Len(t, classes, 3)
		assert.Equal(t, "One", classes[0].ClassTitle)
		assert.Equal(t, "Three", classes[2].ClassTitle)
	})

	t.Run("by course", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/classes/course/42", tkn.trainee)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var classes []schedule.Class
		res := decode(t, rec, &classes)
		assert.Equal(t, "Classes by course retrieved successfully", res.Message)
		assert.Len(t, classes, 2)

		rec = do(app, http.MethodGet, "/v1/classes/course/7", tkn.trainee)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: respOK(t, "Classes by course retrieved successfully", []schedule.Class{}),
		}, rec)
	})

	t.Run("by mentor", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/classes/mentor/John%20Roe", tkn.trainee)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var classes []schedule.Class
		res := decode(t, rec, &classes)
		assert.Equal(t, "Classes by mentor retrieved successfully", res.Message)
		require.Len(t, classes, 1)
		assert.Equal(t, "Three", classes[0].ClassTitle)
	})
}

func TestClass_RetrieveUpdateDelete(t *testing.T) {
	app := setup(t)
	tkn := createStaff(t)
	cls := createClass(t, "Intro", "Jane Doe", inDays(5), nil)
	path := fmt.Sprintf("/v1/classes/%d", cls.ID)

	t.Run("retrieve", func(t *testing.T) {
		rec := do(app, http.MethodGet, path, tkn.trainee)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: respOK(t, "Class schedule retrieved successfully", cls)}, rec)

		rec = do(app, http.MethodGet, "/v1/classes/999", tkn.trainee)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, respErr("Class schedule not found"))}, rec)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(app, http.MethodPut, path, tkn.mentor, []byte(`{"classTitle": "New"}`))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(app, http.MethodPut, path, tkn.admin, []byte(`{"classDate": "2020-01-01"}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Class date and time must be in the future")),
		}, rec)

		rec = do(app, http.MethodPut, path, tkn.admin, []byte(`{"classTitle": "Welcome", "maxTrainees": 30, "meetingLink": "https://meet.example.com/abc"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated schedule.Class
		res := decode(t, rec, &updated)
		assert.Equal(t, "Class schedule updated successfully", res.Message)
		assert.Equal(t, "Welcome", updated.ClassTitle)
		assert.Equal(t, cls.Description, updated.Description)
		assert.Equal(t, cls.ClassDate, updated.ClassDate)
		assert.Equal(t, 30, updated.MaxTrainees)
		require.NotNil(t, updated.MeetingLink)
		assert.Equal(t, "https://meet.example.com/abc", *updated.MeetingLink)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(app, http.MethodDelete, path, tkn.admin)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: respOK(t, "Class schedule deleted successfully", nil)}, rec)

		rec = do(app, http.MethodDelete, path, tkn.admin)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, respErr("Class schedule not found"))}, rec)
	})
}
