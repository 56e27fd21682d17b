package mockapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskclient/internal/mockapi"
	"taskclient/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiTester struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newAPITester(t *testing.T) *apiTester {
	t.Helper()
	server := httptest.NewServer(mockapi.New("test-secret").Handler())
	t.Cleanup(server.Close)
	return &apiTester{t: t, server: server, client: server.Client()}
}

// do sends a JSON request and decodes the response body into out when the
// pointer is non-nil. It returns the status code.
func (a *apiTester) do(method, path, token string, body, out any) int {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *apiTester) register(username string) (models.AuthResponse, int) {
	a.t.Helper()
	var auth models.AuthResponse
	status := a.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "Password123!",
	}, &auth)
	return auth, status
}

func TestServer_RegisterEndToEnd(t *testing.T) {
	api := newAPITester(t)

	auth, status := api.register("e2euser-ab12cd")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "Bearer", auth.Type)
	require.NotNil(t, auth.User)
	assert.Equal(t, "e2euser-ab12cd", auth.User.Username)
	assert.Equal(t, "e2euser-ab12cd@example.com", auth.User.Email)
	assert.Equal(t, models.RoleUser, auth.User.Role)

	// The issued token authenticates follow-up requests.
	var me models.User
	status = api.do(http.MethodGet, "/api/auth/me", auth.Token, nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, auth.User.ID, me.ID)

	// Duplicate usernames are rejected.
	_, status = api.register("e2euser-ab12cd")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_RequiresToken(t *testing.T) {
	api := newAPITester(t)

	status := api.do(http.MethodGet, "/api/tasks", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = api.do(http.MethodGet, "/api/tasks", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_StatusFilterSpansPriorities(t *testing.T) {
	api := newAPITester(t)
	auth, _ := api.register("filteruser")

	for _, create := range []models.TaskCreate{
		{Title: "urgent", Status: models.StatusTodo, Priority: models.PriorityHigh},
		{Title: "later", Status: models.StatusTodo, Priority: models.PriorityLow},
		{Title: "shipped", Status: models.StatusDone},
	} {
		status := api.do(http.MethodPost, "/api/tasks", auth.Token, create, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var tasks []models.Task
	status := api.do(http.MethodGet, "/api/tasks?status=TODO", auth.Token, nil, &tasks)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, tasks, 2, "the filter matches on status, not priority")
	titles := []string{tasks[0].Title, tasks[1].Title}
	assert.ElementsMatch(t, []string{"urgent", "later"}, titles)
}

func TestServer_DeleteRequiresCreator(t *testing.T) {
	api := newAPITester(t)
	creator, _ := api.register("creator")
	other, _ := api.register("bystander")

	var task models.Task
	status := api.do(http.MethodPost, "/api/tasks", creator.Token, models.TaskCreate{Title: "guarded"}, &task)
	require.Equal(t, http.StatusCreated, status)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)
	status = api.do(http.MethodDelete, path, other.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// The task survives the rejected attempt.
	status = api.do(http.MethodGet, path, other.Token, nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status = api.do(http.MethodDelete, path, creator.Token, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status = api.do(http.MethodGet, path, creator.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_AdminMayDeleteAnyTask(t *testing.T) {
	api := newAPITester(t)
	creator, _ := api.register("owner")

	var admin models.AuthResponse
	status := api.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "root",
		Email:    "root@example.com",
		Password: "Password123!",
		Role:     models.RoleAdmin,
	}, &admin)
	require.Equal(t, http.StatusOK, status)

	var task models.Task
	status = api.do(http.MethodPost, "/api/tasks", creator.Token, models.TaskCreate{Title: "anyone's"}, &task)
	require.Equal(t, http.StatusCreated, status)

	status = api.do(http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), admin.Token, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)
}
