// Package services maps the backend's REST resources onto typed Go calls.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"taskclient/internal/httpclient"
	"taskclient/internal/models"
)

// TaskFilter narrows the task listing. Zero values mean "no filter".
type TaskFilter struct {
	Status     models.TaskStatus
	AssigneeID *int64
	Unassigned bool
}

func (f TaskFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.AssigneeID != nil {
		q.Set("assigneeId", strconv.FormatInt(*f.AssigneeID, 10))
	}
	if f.Unassigned {
		q.Set("unassigned", "true")
	}
	return q
}

type TaskService struct {
	api *httpclient.Client
}

func NewTaskService(api *httpclient.Client) *TaskService {
	return &TaskService{api: api}
}

func (s *TaskService) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.api.Get(ctx, "/api/tasks", filter.query(), &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	if err := s.api.Get(ctx, fmt.Sprintf("/api/tasks/%d", id), nil, &task); err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &task, nil
}

func (s *TaskService) Create(ctx context.Context, req models.TaskCreate) (*models.Task, error) {
	var task models.Task
	if err := s.api.Post(ctx, "/api/tasks", req, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, req models.TaskUpdate) (*models.Task, error) {
	var task models.Task
	if err := s.api.Put(ctx, fmt.Sprintf("/api/tasks/%d", id), req, &task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	return &task, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/api/tasks/%d", id)); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// DueSoon lists tasks whose due date falls within the next given minutes.
func (s *TaskService) DueSoon(ctx context.Context, minutes int) ([]models.Task, error) {
	q := url.Values{}
	q.Set("minutes", strconv.Itoa(minutes))
	var tasks []models.Task
	if err := s.api.Get(ctx, "/api/tasks/due-soon", q, &tasks); err != nil {
		return nil, fmt.Errorf("list due-soon tasks: %w", err)
	}
	return tasks, nil
}
