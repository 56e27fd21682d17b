package notifier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskclient/internal/auth"
	"taskclient/internal/httpclient"
	"taskclient/internal/mockapi"
	"taskclient/internal/models"
	"taskclient/internal/notifier"
	"taskclient/internal/services"
	"taskclient/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskService(t *testing.T) *services.TaskService {
	t.Helper()
	server := httptest.NewServer(mockapi.New("test-secret").Handler())
	t.Cleanup(server.Close)

	tokens := auth.NewTokenStore(storage.NewMemStore(), "taskmanagement_token")
	api := httpclient.New(server.URL, 2*time.Second, tokens)
	session := auth.NewManager(api, tokens, 24*time.Hour)
	api.SetRefresher(session)

	_, err := session.Register(context.Background(), "reminder", "reminder@example.com", "Password123!")
	require.NoError(t, err)
	return services.NewTaskService(api)
}

func TestDueSoonNotifier_NotifiesOnceAndSkipsDistant(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	soon := time.Now().Add(5 * time.Minute)
	distant := time.Now().Add(72 * time.Hour)
	imminent, err := svc.Create(ctx, models.TaskCreate{Title: "imminent", DueDate: &soon})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.TaskCreate{Title: "distant", DueDate: &distant})
	require.NoError(t, err)

	var batches [][]models.Task
	n := notifier.New(svc, time.Minute, 30, func(tasks []models.Task) {
		batches = append(batches, tasks)
	})

	n.Check(ctx)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, imminent.ID, batches[0][0].ID)

	// A second poll does not repeat the reminder.
	n.Check(ctx)
	assert.Len(t, batches, 1)

	// A newly imminent task triggers a fresh batch.
	other := time.Now().Add(10 * time.Minute)
	added, err := svc.Create(ctx, models.TaskCreate{Title: "also due", DueDate: &other})
	require.NoError(t, err)
	n.Check(ctx)
	require.Len(t, batches, 2)
	assert.Equal(t, added.ID, batches[1][0].ID)
}

func TestDueSoonNotifier_SurvivesFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"down"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	tokens := auth.NewTokenStore(storage.NewMemStore(), "taskmanagement_token")
	api := httpclient.New(server.URL, 2*time.Second, tokens)
	svc := services.NewTaskService(api)

	called := false
	n := notifier.New(svc, time.Minute, 30, func([]models.Task) { called = true })

	// A failing poll is logged and skipped, never surfaced to the callback.
	n.Check(context.Background())
	assert.False(t, called)
}
