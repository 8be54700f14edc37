package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/schedule"
	testutil "github.com/coding7860/sparkminds-backend/tests"
)

var ctx = context.Background()

func inDays(n int) string {
	return time.Now().AddDate(0, 0, n).Format(schedule.DateLayout)
}

func newClass(title, mentor, date string, courseID *int) schedule.NewClass {
	return schedule.NewClass{
		ClassTitle:  title,
		Description: title + " description",
		CourseID:    courseID,
		MentorName:  mentor,
		ClassDate:   date,
		ClassTime:   "09:30:00",
		Duration:    "1 hour",
		ClassType:   "In-person",
		MaxTrainees: 10,
	}
}

func TestService_Create(t *testing.T) {
	svc := schedule.NewService(testutil.NewInmemStore().ClsRepo)

	tests := []struct {
		name    string
		date    string
		wantErr string
	}{
		{name: "yesterday", date: inDays(-1), wantErr: "Class date and time must be in the future"},
		{name: "unparsable", date: "tomorrow", wantErr: "Invalid date format. Use YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, newClass("Intro", "Jane Doe", tt.date, nil))
			require.Error(t, err)
			assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}

	t.Run("ok", func(t *testing.T) {
		nc := newClass("Intro", "Jane Doe", inDays(1), nil)
		nc.MeetingLink = "https://meet.example.com/intro"

		cls, err := svc.Create(ctx, nc)
		require.NoError(t, err)
		assert.NotZero(t, cls.ID)
		require.NotNil(t, cls.MeetingLink)
		assert.Equal(t, nc.MeetingLink, *cls.MeetingLink)

		got, err := svc.GetByID(ctx, cls.ID)
		require.NoError(t, err)
		assert.Equal(t, cls, got)
	})
}

func TestService_Query(t *testing.T) {
	svc := schedule.NewService(testutil.NewInmemStore().ClsRepo)
	courseID := 3
	for i, mentor := range []string{"Jane Doe", "John Roe", "Jane Doe", "Jane Doe", "John Roe"} {
		var cid *int
		if i%2 == 0 {
			cid = &courseID
		}
		_, err := svc.Create(ctx, newClass(string(rune('A'+i)), mentor, inDays(i+1), cid))
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		filter     *schedule.QueryFilter
		wantTitles []string
		wantPage   schedule.Pagination
	}{
		{
			name:       "defaults",
			filter:     nil,
			wantTitles: []string{"E", "D", "C", "B", "A"},
			wantPage:   schedule.Pagination{CurrentPage: 1, TotalPages: 1, TotalClasses: 5},
		},
		{
			name:       "middle page",
			filter:     &schedule.QueryFilter{Page: 2, Limit: 2},
			wantTitles: []string{"C", "B"},
			wantPage:   schedule.Pagination{CurrentPage: 2, TotalPages: 3, TotalClasses: 5, HasNextPage: true, HasPrevPage: true},
		},
		{
			name:       "last page",
			filter:     &schedule.QueryFilter{Page: 3, Limit: 2},
			wantTitles: []string{"A"},
			wantPage:   schedule.Pagination{CurrentPage: 3, TotalPages: 3, TotalClasses: 5, HasPrevPage: true},
		},
		{
			name:       "past the end",
			filter:     &schedule.QueryFilter{Page: 9, Limit: 2},
			wantTitles: []string{},
			wantPage:   schedule.Pagination{CurrentPage: 9, TotalPages: 3, TotalClasses: 5, HasPrevPage: true},
		},
		{
			name:       "course and mentor",
			filter:     &schedule.QueryFilter{CourseID: courseID, MentorName: " Jane Doe "},
			wantTitles: []string{"C", "A"},
			wantPage:   schedule.Pagination{CurrentPage: 1, TotalPages: 1, TotalClasses: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)

			titles := make([]string, 0, len(page.Classes))
			for _, cls := range page.Classes {
				titles = append(titles, cls.ClassTitle)
			}
			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, tt.wantPage, page.Pagination)
		})
	}

	t.Run("list ignores pagination", func(t *testing.T) {
		classes, err := svc.List(ctx, schedule.QueryFilter{Page: 2, Limit: 1, Upcoming: true})
		require.NoError(t, err)
		require.Len(t, classes, 5)
		assert.Equal(t, "A", classes[0].ClassTitle)
		assert.Equal(t, "E", classes[4].ClassTitle)

		classes, err = svc.List(ctx, schedule.QueryFilter{MentorName: "Nobody"})
		require.NoError(t, err)
		assert.NotNil(t, classes)
		assert.Empty(t, classes)
	})
}

func TestService_UpdateDelete(t *testing.T) {
	svc := schedule.NewService(testutil.NewInmemStore().ClsRepo)
	cls, err := svc.Create(ctx, newClass("Intro", "Jane Doe", inDays(2), nil))
	require.NoError(t, err)

	past, blank, link := inDays(-3), " ", ""
	_, err = svc.Update(ctx, cls.ID, schedule.UpdateClass{ClassDate: &past})
	require.Error(t, err)
	assert.Equal(t, "Class date and time must be in the future", err.Error())

	_, err = svc.Update(ctx, 999, schedule.UpdateClass{})
	assert.True(t, core.IsNotFound(err))

	future, title := inDays(4), "Welcome"
	updated, err := svc.Update(ctx, cls.ID, schedule.UpdateClass{
		ClassTitle:  &title,
		Description: &blank,
		ClassDate:   &future,
		MeetingLink: &link,
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome", updated.ClassTitle)
	assert.Equal(t, cls.Description, updated.Description)
	assert.Equal(t, future, updated.ClassDate)
	assert.Equal(t, cls.ClassTime, updated.ClassTime)
	assert.Nil(t, updated.MeetingLink)

	require.NoError(t, svc.Delete(ctx, cls.ID))
	_, err = svc.GetByID(ctx, cls.ID)
	assert.Equal(t, schedule.ErrNotFound, err)
	assert.True(t, core.IsNotFound(svc.Delete(ctx, cls.ID)))
}
