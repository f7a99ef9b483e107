package client_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/todo-app/client"
	domain "github.com/example/todo-app/domain/todo"
	"github.com/example/todo-app/modules/api"
	"github.com/example/todo-app/modules/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs the real HTTP app over in-memory SQLite and returns a
// client pointed at it.
func startServer(t *testing.T) *client.Client {
	t.Helper()

	repo, err := domain.Open(context.Background(), domain.Options{
		Driver:   "sqlite",
		Path:     ":memory:",
		MaxConns: 10,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := api.NewApp(todo.NewService(repo, nil, nil), ln.Addr().(*net.TCPAddr).Port)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return client.New("http://" + ln.Addr().String() + "/api/todos")
}

func TestClient_Lifecycle(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	created, err := c.Create(ctx, "Buy milk", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.Completed)

	toggled, err := c.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	replaced, err := c.Replace(ctx, created.ID, "Buy oat milk", "2 litres", false)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", replaced.Title)
	assert.Equal(t, "2 litres", replaced.Description)
	assert.False(t, replaced.Completed)
	assert.Equal(t, created.CreatedAt, replaced.CreatedAt)

	require.NoError(t, c.Delete(ctx, created.ID))

	_, err = c.Get(ctx, created.ID)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Todo not found", apiErr.Message)
}

func TestClient_ListNewestFirst(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	empty, err := c.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, title := range []string{"first", "second", "third"} {
		_, err := c.Create(ctx, title, "")
		require.NoError(t, err)
	}

	todos, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 3)
	assert.Equal(t, "third", todos[0].Title)
	assert.Equal(t, "first", todos[2].Title)
}

func TestClient_EmptyTitleRejected(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	_, err := c.Create(ctx, "", "")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title is required", apiErr.Message)

	todos, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestClient_NotFoundAfterDelete(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	created, err := c.Create(ctx, "gone soon", "")
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, created.ID))

	calls := map[string]func() error{
		"get":     func() error { _, err := c.Get(ctx, created.ID); return err },
		"replace": func() error { _, err := c.Replace(ctx, created.ID, "x", "", false); return err },
		"toggle":  func() error { _, err := c.Toggle(ctx, created.ID); return err },
		"delete":  func() error { return c.Delete(ctx, created.ID) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			var apiErr *client.APIError
			require.ErrorAs(t, call(), &apiErr)
			assert.Equal(t, http.StatusNotFound, apiErr.Status)
		})
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to fetch todos"}`))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).List(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to fetch todos", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "500")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url).List(context.Background())
	require.Error(t, err)

	var apiErr *client.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_RequestShape(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"id":7,"title":"t","description":"","completed":true}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL + "/api/todos/")
	assert.Equal(t, srv.URL+"/api/todos", c.BaseURL())

	_, err := c.Toggle(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/todos/7/toggle", gotPath)
	assert.Empty(t, gotContentType)

	_, err = c.Replace(context.Background(), 7, "t", "", true)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/todos/7", gotPath)
	assert.Equal(t, "application/json", gotContentType)
}

func TestNew_DefaultBaseURL(t *testing.T) {
	assert.Equal(t, client.DefaultBaseURL, client.New("").BaseURL())
}
