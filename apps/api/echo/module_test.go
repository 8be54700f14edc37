package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding7860/sparkminds-backend/core/course"
	testutil "github.com/coding7860/sparkminds-backend/tests"
)

func TestModule_Create(t *testing.T) {
	app := setup(t)
	tkn := createStaff(t)
	tree := testutil.CreateCompleteCourse(t, crsSvc, testutil.NewCompleteCourse("Go", "Jane Doe",
		testutil.NewModule("Syntax", 5),
		testutil.NewModule("Concurrency", 3),
	))

	tests := []httpTest{
		{
			name:     "trainee",
			token:    tkn.trainee,
			body:     []byte(fmt.Sprintf(`{"courseId": %d, "moduleName": "Testing"}`, tree.ID)),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "missing name",
			token:    tkn.mentor,
			body:     []byte(fmt.Sprintf(`{"courseId": %d, "moduleName": "  "}`, tree.ID)),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Course ID and module name are required")),
		},
		{
			name:     "missing course",
			token:    tkn.mentor,
			body:     []byte(`{"moduleName": "Testing"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Course ID and module name are required")),
		},
		{
			name:     "unknown course",
			token:    tkn.mentor,
			body:     []byte(`{"courseId": 999, "moduleName": "Testing"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Course not found")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(app, http.MethodPost, "/v1/modules", tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("appended", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"courseId": %d, "moduleName": "Testing", "description": "Table tests", "durationDays": 2}`, tree.ID))
		rec := do(app, http.MethodPost, "/v1/modules", tkn.mentor, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var mod course.Module
		res := decode(t, rec, &mod)
		assert.Equal(t, "Module created successfully", res.Message)
		assert.Equal(t, tree.ID, mod.CourseID)
		assert.Equal(t, "Testing", mod.ModuleName)
		assert.Equal(t, 3, mod.ModuleOrder)
	})
}

func TestModule_QueryByCourse(t *testing.T) {
	app := setup(t)
	tkn := createStaff(t)
	tree := testutil.CreateCompleteCourse(t, crsSvc, testutil.NewCompleteCourse("Go", "Jane Doe",
		testutil.NewModule("Syntax", 5, "Types", "Loops"),
		testutil.NewModule("Concurrency", 3),
	))

	rec := do(app, http.MethodGet, fmt.Sprintf("/v1/modules/course/%d", tree.ID), tkn.trainee)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mods []course.ModuleTree
	res := decode(t, rec, &mods)
	assert.Equal(t, "Modules retrieved successfully", res.Message)
	require.Len(t, mods, 2)
	assert.Equal(t, "Syntax", mods[0].ModuleName)
	assert.Len(t, mods[0].Subtopics, 2)
	assert.Equal(t, "Concurrency", mods[1].ModuleName)
	assert.Empty(t, mods[1].Subtopics)

	rec = do(app, http.MethodGet, "/v1/modules/course/999", tkn.trainee)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, respErr("Course not found"))}, rec)

	rec = do(app, http.MethodGet, "/v1/modules/course/x", tkn.trainee)
	checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, respErr("Valid course ID is required"))}, rec)
}

func TestModule_RetrieveUpdateDelete(t *testing.T) {
	app := setup(t)
	tkn := createStaff(t)
	tree := testutil.CreateCompleteCourse(t, crsSvc, testutil.NewCompleteCourse("Go", "Jane Doe",
		testutil.NewModule("Syntax", 5, "Types"),
	))
	mod := tree.Modules[0]
	path := fmt.Sprintf("/v1/modules/%d", mod.ID)

	t.Run("retrieve", func(t *testing.T) {
		rec := do(app, http.MethodGet, path, tkn.trainee)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: respOK(t, "Module retrieved successfully", mod)}, rec)
	})

	t.Run("unknown", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/modules/999", tkn.trainee)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, respErr("Module not found"))}, rec)
	})

	t.Run("update requires a name", func(t *testing.T) {
		rec := do(app, http.MethodPut, path, tkn.mentor, []byte(`{"description": "new"}`))
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, respErr("Module name is required"))}, rec)
	})

	t.Run("update keeps unset fields", func(t *testing.T) {
		rec := do(app, http.MethodPut, path, tkn.mentor, []byte(`{"moduleName": "Go Syntax", "durationDays": 6}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated course.Module
		res := decode(t, rec, &updated)
		assert.Equal(t, "Module updated successfully", res.Message)
		assert.Equal(t, "Go Syntax", updated.ModuleName)
		assert.Equal(t, mod.Description, updated.Description)
		assert.Equal(t, 6, updated.DurationDays)
		assert.Equal(t, mod.ModuleOrder, updated.ModuleOrder)
	})

	t.Run("delete removes subtopics", func(t *testing.T) {
		rec := do(app, http.MethodDelete, path, tkn.trainee)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(app, http.MethodDelete, path, tkn.admin)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: respOK(t, "Module deleted successfully", nil)}, rec)

		rec = do(app, http.MethodGet, fmt.Sprintf("/v1/subtopics/%d", mod.Subtopics[0].ID), tkn.admin)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(app, http.MethodDelete, path, tkn.admin)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestModule_Reorder(t *testing.T) {
	app := setup(t)
	tkn := createStaff(t)
	tree := testutil.CreateCompleteCourse(t, crsSvc, testutil.NewCompleteCourse("Go", "Jane Doe",
		testutil.NewModule("First", 1),
		testutil.NewModule("Second", 1),
	))
	other := testutil.CreateCompleteCourse(t, crsSvc, testutil.NewCompleteCourse("Rust", "John Roe",
		testutil.NewModule("Other", 1),
	))
	first, second := tree.Modules[0], tree.Modules[1]
	path := fmt.Sprintf("/v1/modules/course/%d/reorder", tree.ID)

	t.Run("swap", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"moduleOrders": [{"id": %d, "moduleOrder": 2}, {"id": %d, "moduleOrder": 1}]}`, first.ID, second.ID))
		rec := do(app, http.MethodPut, path, tkn.mentor, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var mods []course.ModuleTree
		res := decode(t, rec, &mods)
		assert.Equal(t, "Modules reordered successfully", res.Message)
		require.Len(t, mods, 2)
		assert.Equal(t, "Second", mods[0].ModuleName)
		assert.Equal(t, "First", mods[1].ModuleName)
	})

	t.Run("not an array", func(t *testing.T) {
		rec := do(app, http.MethodPut, path, tkn.mentor, []byte(`{}`))
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, respErr("Module orders must be an array"))}, rec)
	})

	t.Run("module of another course", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"moduleOrders": [{"id": %d, "moduleOrder": 1}, {"id": %d, "moduleOrder": 3}]}`, first.ID, other.Modules[0].ID))
		rec := do(app, http.MethodPut, path, tkn.mentor, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// the first entry was rolled back
		mod, err := crsSvc.GetModule(ctxBg, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, mod.ModuleOrder)
	})
}
