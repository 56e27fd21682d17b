package mockapi

import (
	"sort"
	"sync"
	"time"

	"taskclient/internal/models"
)

// Store is the mock backend's in-memory state. Everything is ephemeral by
// design; the mock exists for tests and the mock-API feature flag.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]models.User
	passwords  map[string]string // keyed by username
	tasks      map[int64]models.Task
	comments   map[int64]models.Comment
	activities []models.Activity
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]models.User),
		passwords: make(map[string]string),
		tasks:     make(map[int64]models.Task),
		comments:  make(map[int64]models.Comment),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(username, email, password string, role models.Role) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return models.User{}, false
		}
	}
	if role == "" {
		role = models.RoleUser
	}
	user := models.User{
		ID:        s.id(),
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.passwords[username] = password
	return user, true
}

func (s *Store) Authenticate(username, password string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.passwords[username]
	if !ok || stored != password {
		return models.User{}, false
	}
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) UserByUsername(username string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CreateTask(req models.TaskCreate, creatorID int64) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	task := models.Task{
		ID:          s.id(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
		DueDate:     req.DueDate,
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	s.tasks[task.ID] = task
	return task
}

func (s *Store) TaskByID(id int64) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *Store) UpdateTask(id int64, req models.TaskUpdate) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.AssigneeID != nil {
		task.AssigneeID = req.AssigneeID
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	task.UpdatedAt = time.Now().UTC()
	s.tasks[id] = task
	return task, true
}

func (s *Store) DeleteTask(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// Tasks lists newest-first, optionally narrowed by status, assignee or the
// unassigned flag.
func (s *Store) Tasks(status models.TaskStatus, assigneeID *int64, unassigned bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if status != "" && t.Status != status {
			continue
		}
		if unassigned && t.AssigneeID != nil {
			continue
		}
		if assigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *assigneeID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) TasksDueWithin(window time.Duration) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := time.Now().UTC().Add(window)
	var out []models.Task
	for _, t := range s.tasks {
		if t.Status == models.StatusDone || t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(cutoff) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CreateComment(taskID, authorID int64, authorUsername, content string) models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment := models.Comment{
		ID:             s.id(),
		Content:        content,
		TaskID:         taskID,
		AuthorID:       authorID,
		AuthorUsername: authorUsername,
		CreatedAt:      time.Now().UTC(),
	}
	s.comments[comment.ID] = comment
	return comment
}

func (s *Store) CommentByID(id int64) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	return c, ok
}

func (s *Store) UpdateComment(id int64, content string) (models.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, false
	}
	c.Content = content
	s.comments[id] = c
	return c, true
}

func (s *Store) DeleteComment(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.comments, id)
}

func (s *Store) CommentsByTask(taskID int64) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, c := range s.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) AppendActivity(a models.Activity) models.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.activities = append(s.activities, a)
	return a
}

func (s *Store) ActivitiesByTask(taskID int64) []models.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Activity
	for _, a := range s.activities {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}
