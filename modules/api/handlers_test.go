package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/taskboard/modules/task"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details any             `json:"details"`
}

type taskJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&task.Task{}))

	service := task.NewService(task.NewRepository(db), nil)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(app, NewHandlers(service, false))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, testEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var env testEnvelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	resp.Body.Close()
	return resp, env
}

func TestTaskLifecycle(t *testing.T) {
	app := setupApp(t)

	// create with surrounding whitespace
	resp, env := doRequest(t, app, http.MethodPost, "/tasks", `{"title": "  Buy milk  "}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)

	var created taskJSON
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// mark done
	time.Sleep(5 * time.Millisecond)
	resp, env = doRequest(t, app, http.MethodPatch, "/tasks/"+created.ID, `{"status":"done"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated taskJSON
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "done", updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)

	createdAt, err := time.Parse(time.RFC3339Nano, updated.CreatedAt)
	require.NoError(t, err)
	updatedAt, err := time.Parse(time.RFC3339Nano, updated.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, updatedAt.After(createdAt), "expected updatedAt %v after createdAt %v", updatedAt, createdAt)

	// delete: 204 with no body
	req := httptest.NewRequest(http.MethodDelete, "/tasks/"+created.ID, nil)
	delResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	// the id is gone for good
	resp, env = doRequest(t, app, http.MethodGet, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestListTasks(t *testing.T) {
	app := setupApp(t)

	resp, env := doRequest(t, app, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var empty []taskJSON
	require.NoError(t, json.Unmarshal(env.Data, &empty))
	assert.Empty(t, empty)

	doRequest(t, app, http.MethodPost, "/tasks", `{"title":"one"}`)
	doRequest(t, app, http.MethodPost, "/tasks", `{"title":"two"}`)

	_, env = doRequest(t, app, http.MethodGet, "/tasks", "")
	var tasks []taskJSON
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	assert.Len(t, tasks, 2)
}

func TestCreateTaskValidation(t *testing.T) {
	app := setupApp(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{}`},
		{"empty title", `{"title":""}`},
		{"whitespace title", `{"title":"   "}`},
		{"too-long title", `{"title":"` + strings.Repeat("a", 201) + `"}`},
		{"malformed body", `{"title":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := doRequest(t, app, http.MethodPost, "/tasks", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestUpdateTaskFailures(t *testing.T) {
	app := setupApp(t)

	_, env := doRequest(t, app, http.MethodPost, "/tasks", `{"title":"patch target"}`)
	var created taskJSON
	require.NoError(t, json.Unmarshal(env.Data, &created))

	t.Run("unknown status", func(t *testing.T) {
		resp, env := doRequest(t, app, http.MethodPatch, "/tasks/"+created.ID, `{"status":"archived"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, env.Success)
	})

	t.Run("empty patch", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodPatch, "/tasks/"+created.ID, `{}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodPatch, "/tasks/not-an-id", `{"status":"done"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("absent id", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodPatch, "/tasks/00000000-0000-4000-8000-000000000000", `{"status":"done"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMalformedIDIsNotNotFound(t *testing.T) {
	app := setupApp(t)

	resp, env := doRequest(t, app, http.MethodGet, "/tasks/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	resp, _ = doRequest(t, app, http.MethodDelete, "/tasks/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetStats(t *testing.T) {
	app := setupApp(t)

	doRequest(t, app, http.MethodPost, "/tasks", `{"title":"a"}`)
	_, env := doRequest(t, app, http.MethodPost, "/tasks", `{"title":"b"}`)
	var b taskJSON
	require.NoError(t, json.Unmarshal(env.Data, &b))
	doRequest(t, app, http.MethodPatch, "/tasks/"+b.ID, `{"status":"done"}`)

	resp, env := doRequest(t, app, http.MethodGet, "/tasks/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var stats []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.Len(t, stats, 2)

	counts := map[string]int64{}
	for _, s := range stats {
		counts[s.Status] = s.Count
	}
	assert.Equal(t, int64(1), counts["open"])
	assert.Equal(t, int64(1), counts["done"])
}

func TestUnmatchedRoute(t *testing.T) {
	app := setupApp(t)

	resp, env := doRequest(t, app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "route not found", env.Error)
}
