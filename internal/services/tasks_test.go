package services_test

import (
	"context"
	"testing"
	"time"

	"taskclient/internal/models"
	"taskclient/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_CRUD(t *testing.T) {
	api, session, _ := newAuthedClient(t)
	svc := services.NewTaskService(api)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.TaskCreate{Title: "write report", Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, created.Status, "status defaults to TODO")
	assert.Equal(t, session.CurrentUser().ID, created.CreatorID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "write report", got.Title)

	updated, err := svc.Update(ctx, created.ID, models.TaskUpdate{Status: models.StatusDone})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)
	assert.Equal(t, "write report", updated.Title, "partial update keeps other fields")

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.Error(t, err)
}

func TestTaskService_ListFilters(t *testing.T) {
	api, session, _ := newAuthedClient(t)
	svc := services.NewTaskService(api)
	ctx := context.Background()

	me := session.CurrentUser().ID
	_, err := svc.Create(ctx, models.TaskCreate{Title: "assigned", AssigneeID: &me})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.TaskCreate{Title: "free", Status: models.StatusDone})
	require.NoError(t, err)

	byStatus, err := svc.List(ctx, services.TaskFilter{Status: models.StatusDone})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "free", byStatus[0].Title)

	byAssignee, err := svc.List(ctx, services.TaskFilter{AssigneeID: &me})
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)
	assert.Equal(t, "assigned", byAssignee[0].Title)

	unassigned, err := svc.List(ctx, services.TaskFilter{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, "free", unassigned[0].Title)
}

func TestTaskService_DueSoon(t *testing.T) {
	api, _, _ := newAuthedClient(t)
	svc := services.NewTaskService(api)
	ctx := context.Background()

	soon := time.Now().Add(10 * time.Minute)
	later := time.Now().Add(48 * time.Hour)
	_, err := svc.Create(ctx, models.TaskCreate{Title: "imminent", DueDate: &soon})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.TaskCreate{Title: "distant", DueDate: &later})
	require.NoError(t, err)

	due, err := svc.DueSoon(ctx, 30)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "imminent", due[0].Title)
}

func TestUserService_List(t *testing.T) {
	api, _, _ := newAuthedClient(t)

	users, err := services.NewUserService(api).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "svcuser", users[0].Username)
}
